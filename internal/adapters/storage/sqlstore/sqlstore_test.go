package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"shelter-clinical-records/internal/domain/animals"
	"shelter-clinical-records/internal/domain/chart"
	"shelter-clinical-records/internal/domain/media"
	"shelter-clinical-records/internal/domain/pharmacy"
	"shelter-clinical-records/internal/domain/records"
	"shelter-clinical-records/internal/domain/users"
	"shelter-clinical-records/internal/platform/apperr"
	"shelter-clinical-records/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	// idempotente
	require.NoError(t, db.Migrate(ctx))
	return db
}

func seedUser(t *testing.T, db *DB, email string) int64 {
	t.Helper()
	id, err := NewUsersRepo(db).Create(context.Background(), users.User{
		Name:         "Ana",
		Email:        email,
		PasswordHash: "x",
		Role:         auth.RoleVeterinary,
		Active:       true,
		CreatedAt:    base,
	})
	require.NoError(t, err)
	return id
}

func seedAnimal(t *testing.T, db *DB, userID int64, name string, status animals.Status, entry time.Time) int64 {
	t.Helper()
	id, err := NewAnimalsRepo(db).Create(context.Background(), animals.Animal{
		Name:      name,
		Species:   "dog",
		Sex:       animals.SexUnknown,
		Status:    status,
		EntryDate: entry,
		UpdatedAt: entry,
		CreatedBy: userID,
	}, nil)
	require.NoError(t, err)
	return id
}

func TestUsersRepo_DuplicateEmailAndLookup(t *testing.T) {
	db := openTestDB(t)
	repo := NewUsersRepo(db)
	ctx := context.Background()

	id := seedUser(t, db, "ana@example.com")

	_, err := repo.Create(ctx, users.User{Name: "Other", Email: "ana@example.com", PasswordHash: "y", Role: auth.RoleViewer, Active: true, CreatedAt: base})
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	u, err := repo.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, auth.RoleVeterinary, u.Role)
	assert.True(t, u.Active)
	assert.True(t, u.CreatedAt.Equal(base))

	require.NoError(t, repo.SetActive(ctx, id, false))
	u, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, u.Active)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAnimalsRepo_ChipUniqueAndPhoto(t *testing.T) {
	db := openTestDB(t)
	repo := NewAnimalsRepo(db)
	ctx := context.Background()
	uid := seedUser(t, db, "ana@example.com")

	chip := "985112003456789"
	a := animals.Animal{Name: "Rex", Species: "dog", Sex: animals.SexMale, ChipID: &chip, Status: animals.StatusShelter, EntryDate: base, UpdatedAt: base, CreatedBy: uid}
	id, err := repo.Create(ctx, a, &animals.Photo{Data: []byte{0xff, 0xd8, 0xff}, Mimetype: "image/jpeg"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, a, nil)
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Rex", got.Name)
	require.NotNil(t, got.ChipID)
	assert.Equal(t, chip, *got.ChipID)
	assert.True(t, got.HasPhoto)
	assert.Nil(t, got.Age)

	photo, err := repo.GetPhoto(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, photo.Data)

	// Dos animales sin chip no chocan.
	seedAnimal(t, db, uid, "Luna", animals.StatusShelter, base)
	seedAnimal(t, db, uid, "Toby", animals.StatusShelter, base)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAnimalsRepo_SearchAndDashboardOrdering(t *testing.T) {
	db := openTestDB(t)
	repo := NewAnimalsRepo(db)
	ctx := context.Background()
	uid := seedUser(t, db, "ana@example.com")

	older := seedAnimal(t, db, uid, "Rex", animals.StatusShelter, base.Add(-48*time.Hour))
	newer := seedAnimal(t, db, uid, "Rexona", animals.StatusHospital, base)
	seedAnimal(t, db, uid, "Max", animals.StatusAdopted, base.Add(time.Hour))
	seedAnimal(t, db, uid, "100%_cat", animals.StatusShelter, base)

	found, err := repo.Search(ctx, animals.SearchFilter{Query: "REX", Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, newer, found[0].ID)
	assert.Equal(t, older, found[1].ID)

	found, err = repo.Search(ctx, animals.SearchFilter{Query: "rex", Status: animals.StatusShelter, Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, older, found[0].ID)

	// Los comodines se escapan.
	found, err = repo.Search(ctx, animals.SearchFilter{Query: "%_", Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100%_cat", found[0].Name)

	dash, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, dash, 3)
	assert.Equal(t, older, dash[2].ID)
	for _, s := range dash {
		assert.NotEqual(t, animals.StatusAdopted, s.Status)
	}
}

func TestRecordsRepo_AdmitForcesHospitalFromAnyStatus(t *testing.T) {
	db := openTestDB(t)
	ar := NewAnimalsRepo(db)
	rr := NewRecordsRepo(db)
	ctx := context.Background()
	uid := seedUser(t, db, "ana@example.com")

	for _, st := range animals.Statuses {
		t.Run(string(st), func(t *testing.T) {
			aid := seedAnimal(t, db, uid, "A-"+string(st), st, base)

			hid, err := rr.Admit(ctx, records.Hospitalization{
				AnimalID:       aid,
				EntryDate:      base,
				Reason:         "fracture",
				VeterinarianID: uid,
				CreatedAt:      base,
			})
			require.NoError(t, err)
			assert.Positive(t, hid)

			a, err := ar.GetByID(ctx, aid)
			require.NoError(t, err)
			assert.Equal(t, animals.StatusHospital, a.Status)

			hs, err := rr.ListHospitalizations(ctx, aid)
			require.NoError(t, err)
			require.Len(t, hs, 1)
			assert.Equal(t, "fracture", hs[0].Reason)
			assert.True(t, hs[0].Open())
		})
	}
}

func TestRecordsRepo_AdmitMissingAnimalLeavesNothing(t *testing.T) {
	db := openTestDB(t)
	rr := NewRecordsRepo(db)
	ctx := context.Background()
	uid := seedUser(t, db, "ana@example.com")

	_, err := rr.Admit(ctx, records.Hospitalization{AnimalID: 404, EntryDate: base, Reason: "x", VeterinarianID: uid, CreatedAt: base})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var n int
	require.NoError(t, db.SQL().QueryRow(`SELECT COUNT(*) FROM hospitalizations`).Scan(&n))
	assert.Zero(t, n)
}

func TestRecordsRepo_DischargeKeepsAnimalStatus(t *testing.T) {
	db := openTestDB(t)
	ar := NewAnimalsRepo(db)
	rr := NewRecordsRepo(db)
	ctx := context.Background()
	uid := seedUser(t, db, "ana@example.com")
	aid := seedAnimal(t, db, uid, "Rex", animals.StatusShelter, base)

	hid, err := rr.Admit(ctx, records.Hospitalization{AnimalID: aid, EntryDate: base, Reason: "fracture", VeterinarianID: uid, CreatedAt: base})
	require.NoError(t, err)

	h, err := rr.GetHospitalization(ctx, aid, hid)
	require.NoError(t, err)
	exit := base.Add(72 * time.Hour)
	h.ExitDate = &exit
	h.ExitStatus = "recovered"
	require.NoError(t, rr.Discharge(ctx, h))

	// Una segunda alta no encuentra internación abierta.
	assert.ErrorIs(t, rr.Discharge(ctx, h), apperr.ErrNotFound)

	a, err := ar.GetByID(ctx, aid)
	require.NoError(t, err)
	assert.Equal(t, animals.StatusHospital, a.Status)

	_, err = rr.GetHospitalization(ctx, aid+1, hid)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRecordsRepo_CurrentHealthRecordAndProcedures(t *testing.T) {
	db := openTestDB(t)
	rr := NewRecordsRepo(db)
	ctx := context.Background()
	uid := seedUser(t, db, "ana@example.com")
	aid := seedAnimal(t, db, uid, "Rex", animals.StatusShelter, base)

	_, err := rr.CurrentHealthRecord(ctx, aid)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	w1, w2 := 10.5, 11.0
	_, err = rr.AddHealthRecord(ctx, records.HealthRecord{AnimalID: aid, Weight: &w1, CreatedBy: uid, CreatedAt: base, UpdatedAt: base})
	require.NoError(t, err)
	_, err = rr.AddHealthRecord(ctx, records.HealthRecord{AnimalID: aid, Weight: &w2, CreatedBy: uid, CreatedAt: base, UpdatedAt: base.Add(time.Hour)})
	require.NoError(t, err)

	cur, err := rr.CurrentHealthRecord(ctx, aid)
	require.NoError(t, err)
	require.NotNil(t, cur.Weight)
	assert.Equal(t, 11.0, *cur.Weight)

	all, err := rr.ListHealthRecords(ctx, aid)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	for i, day := range []int{1, 5, 9} {
		_, err := rr.AddProcedure(ctx, records.Procedure{
			AnimalID:       aid,
			Name:           "p" + string(rune('a'+i)),
			Date:           time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC),
			VeterinarianID: uid,
			CreatedAt:      base,
		})
		require.NoError(t, err)
	}
	from := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC)
	ps, err := rr.ListRecentProcedures(ctx, records.ProcedureFilter{From: &from, To: &to, Limit: 10})
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "pc", ps[0].Name)
	assert.Equal(t, "Rex", ps[0].AnimalName)
}

func TestPharmacyRepo_PrescribeReusesMedicationCaseInsensitive(t *testing.T) {
	db := openTestDB(t)
	repo := NewPharmacyRepo(db)
	ctx := context.Background()
	uid := seedUser(t, db, "ana@example.com")
	aid := seedAnimal(t, db, uid, "Rex", animals.StatusShelter, base)

	rx := pharmacy.Prescription{AnimalID: aid, Dosage: "5mg", StartDate: base, Status: pharmacy.StatusActive, PrescribedBy: uid, CreatedAt: base}

	first, created, err := repo.Prescribe(ctx, "Amoxicilina", rx)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.Prescribe(ctx, "AMOXICILINA", rx)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.MedicationID, second.MedicationID)
	assert.Equal(t, "Amoxicilina", second.MedicationName)

	meds, err := repo.ListMedications(ctx)
	require.NoError(t, err)
	require.Len(t, meds, 1)

	list, err := repo.ListPrescriptions(ctx, aid)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, repo.SetPrescriptionStatus(ctx, aid, first.ID, pharmacy.StatusSuspended))
	got, err := repo.GetPrescription(ctx, aid, first.ID)
	require.NoError(t, err)
	assert.Equal(t, pharmacy.StatusSuspended, got.Status)

	m, err := repo.UpsertMedication(ctx, pharmacy.Medication{Name: "amoxicilina", StockQuantity: 3, Unit: "cx", MinStock: 5, CreatedAt: base})
	require.NoError(t, err)
	assert.Equal(t, first.MedicationID, m.ID)
	assert.True(t, m.LowStock())
}

func TestDeleteAnimalCascades(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	uid := seedUser(t, db, "ana@example.com")
	aid := seedAnimal(t, db, uid, "Rex", animals.StatusShelter, base)

	rr := NewRecordsRepo(db)
	_, err := rr.AddVaccine(ctx, records.Vaccine{AnimalID: aid, Name: "V10", ApplicationDate: base, VeterinarianID: uid, CreatedAt: base})
	require.NoError(t, err)
	_, err = rr.Admit(ctx, records.Hospitalization{AnimalID: aid, EntryDate: base, Reason: "x", VeterinarianID: uid, CreatedAt: base})
	require.NoError(t, err)
	_, _, err = NewPharmacyRepo(db).Prescribe(ctx, "Dipirona", pharmacy.Prescription{AnimalID: aid, Dosage: "1", StartDate: base, Status: pharmacy.StatusActive, PrescribedBy: uid, CreatedAt: base})
	require.NoError(t, err)
	_, err = NewMediaRepo(db).Add(ctx, media.Blob{Item: media.Item{AnimalID: aid, Kind: media.KindDocument, SizeBytes: 1, UploadedBy: uid, UploadedAt: base}, Data: []byte("x")})
	require.NoError(t, err)

	require.NoError(t, NewAnimalsRepo(db).Delete(ctx, aid))

	for _, table := range []string{"vaccines", "hospitalizations", "animal_medications", "animal_documents"} {
		var n int
		require.NoError(t, db.SQL().QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
		assert.Zero(t, n, table)
	}
	// El medicamento y el usuario sobreviven.
	var meds, us int
	require.NoError(t, db.SQL().QueryRow(`SELECT COUNT(*) FROM medications`).Scan(&meds))
	require.NoError(t, db.SQL().QueryRow(`SELECT COUNT(*) FROM users`).Scan(&us))
	assert.Equal(t, 1, meds)
	assert.Equal(t, 1, us)
}

func TestMediaRepo_RoundTripAndLibrary(t *testing.T) {
	db := openTestDB(t)
	repo := NewMediaRepo(db)
	ctx := context.Background()
	uid := seedUser(t, db, "ana@example.com")
	aid := seedAnimal(t, db, uid, "Rex", animals.StatusShelter, base)

	mt, name := "application/pdf", "exame.pdf"
	payload := []byte("%PDF-1.4 fake")
	id, err := repo.Add(ctx, media.Blob{
		Item: media.Item{AnimalID: aid, Kind: media.KindDocument, Description: "Hemograma", Mimetype: &mt, Filename: &name, SizeBytes: int64(len(payload)), UploadedBy: uid, UploadedAt: base},
		Data: payload,
	})
	require.NoError(t, err)

	b, err := repo.Get(ctx, media.KindDocument, aid, id)
	require.NoError(t, err)
	assert.Equal(t, payload, b.Data)
	require.NotNil(t, b.Filename)
	assert.Equal(t, name, *b.Filename)
	require.NotNil(t, b.Mimetype)
	assert.Equal(t, mt, *b.Mimetype)

	// Mismo id pero como foto: no existe.
	_, err = repo.Get(ctx, media.KindPhoto, aid, id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	lib, err := repo.Library(ctx, media.LibraryFilter{Query: "hemo", Limit: 10})
	require.NoError(t, err)
	require.Len(t, lib, 1)
	assert.Equal(t, "Rex", lib[0].AnimalName)

	lib, err = repo.Library(ctx, media.LibraryFilter{Query: "raio-x", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, lib)
}

func TestChartRepo_Reports(t *testing.T) {
	db := openTestDB(t)
	repo := NewChartRepo(db)
	ctx := context.Background()
	uid := seedUser(t, db, "ana@example.com")
	rex := seedAnimal(t, db, uid, "Rex", animals.StatusShelter, base)
	seedAnimal(t, db, uid, "Luna", animals.StatusShelter, base)

	rr := NewRecordsRepo(db)
	_, err := rr.Admit(ctx, records.Hospitalization{AnimalID: rex, EntryDate: base, Reason: "fracture", VeterinarianID: uid, CreatedAt: base})
	require.NoError(t, err)
	next := base.Add(10 * 24 * time.Hour)
	_, err = rr.AddVaccine(ctx, records.Vaccine{AnimalID: rex, Name: "V10", ApplicationDate: base, NextDose: &next, VeterinarianID: uid, CreatedAt: base})
	require.NoError(t, err)

	byStatus, err := repo.CountAnimalsByStatus(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []chart.Count{{Key: "shelter", Count: 1}, {Key: "hospital", Count: 1}}, byStatus)

	bySpecies, err := repo.CountAnimalsBySpecies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []chart.Count{{Key: "dog", Count: 2}}, bySpecies)

	open, err := repo.OpenHospitalizations(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "Rex", open[0].AnimalName)

	due, err := repo.VaccinesDue(ctx, base, base.Add(30*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.True(t, due[0].NextDose.Equal(next))

	authored, err := repo.Authored(ctx, uid, chart.EntryHospitalization, 10)
	require.NoError(t, err)
	require.Len(t, authored, 1)
	assert.Equal(t, "fracture", authored[0].Title)

	none, err := repo.Authored(ctx, uid+1, chart.EntryVaccine, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSessionStore(t *testing.T) {
	db := openTestDB(t)
	s := NewSessionStore(db)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "k1", []byte(`{"a":1}`), base.Add(time.Hour)))
	require.NoError(t, s.Save(ctx, "k1", []byte(`{"a":2}`), base.Add(2*time.Hour)))
	require.NoError(t, s.Save(ctx, "k2", []byte(`{}`), base.Add(-time.Minute)))

	data, exp, ok, err := s.Find(ctx, "k1", base)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":2}`, string(data))
	assert.True(t, exp.Equal(base.Add(2*time.Hour)))

	_, _, ok, err = s.Find(ctx, "k2", base)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.DeleteExpired(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, s.Delete(ctx, "k1"))
	_, _, ok, err = s.Find(ctx, "k1", base)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "a = ? AND b = ?", DialectSQLite.rebind("a = ? AND b = ?"))
	assert.Equal(t, "a = $1 AND b = $2", DialectPostgres.rebind("a = ? AND b = ?"))
}

func TestFoldKey(t *testing.T) {
	assert.Equal(t, foldKey("ÁCIDO TRANEXÂMICO"), foldKey(" Ácido Tranexâmico "))
	assert.Equal(t, "ágata", foldKey("Ágata"))
	assert.Equal(t, `%\%\_ç%`, likePattern("%_Ç"))
}

func TestPharmacyRepo_ReusesAccentedNameAnyCase(t *testing.T) {
	db := openTestDB(t)
	repo := NewPharmacyRepo(db)
	ctx := context.Background()
	uid := seedUser(t, db, "ana@example.com")
	aid := seedAnimal(t, db, uid, "Rex", animals.StatusShelter, base)

	rx := pharmacy.Prescription{AnimalID: aid, Dosage: "250mg", StartDate: base, Status: pharmacy.StatusActive, PrescribedBy: uid, CreatedAt: base}

	first, created, err := repo.Prescribe(ctx, "Ácido Tranexâmico", rx)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.Prescribe(ctx, "ÁCIDO TRANEXÂMICO", rx)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.MedicationID, second.MedicationID)

	m, err := repo.UpsertMedication(ctx, pharmacy.Medication{Name: "ácido tranexâmico", StockQuantity: 10, MinStock: 2, CreatedAt: base})
	require.NoError(t, err)
	assert.Equal(t, first.MedicationID, m.ID)

	meds, err := repo.ListMedications(ctx)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, "Ácido Tranexâmico", meds[0].Name)
}

func TestAnimalsRepo_SearchAccentedNamesAndClinicStatus(t *testing.T) {
	db := openTestDB(t)
	repo := NewAnimalsRepo(db)
	ctx := context.Background()
	uid := seedUser(t, db, "ana@example.com")

	agata := seedAnimal(t, db, uid, "Ágata", animals.StatusClinic, base)
	seedAnimal(t, db, uid, "Agnes", animals.StatusShelter, base)

	found, err := repo.Search(ctx, animals.SearchFilter{Query: "ágata", Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, agata, found[0].ID)

	found, err = repo.Search(ctx, animals.SearchFilter{Query: "ÁGA", Status: animals.StatusClinic, Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, animals.StatusClinic, found[0].Status)

	// Renombrar actualiza la clave de búsqueda.
	a, err := repo.GetByID(ctx, agata)
	require.NoError(t, err)
	a.Name = "Íris"
	require.NoError(t, repo.Update(ctx, a))

	found, err = repo.Search(ctx, animals.SearchFilter{Query: "ágata", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, found)
	found, err = repo.Search(ctx, animals.SearchFilter{Query: "ÍRIS", Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 1)
}

func TestMediaRepo_LibraryAccentedQuery(t *testing.T) {
	db := openTestDB(t)
	repo := NewMediaRepo(db)
	ctx := context.Background()
	uid := seedUser(t, db, "ana@example.com")
	aid := seedAnimal(t, db, uid, "Rex", animals.StatusShelter, base)

	name := "Ultrassonografia Abdômen.pdf"
	_, err := repo.Add(ctx, media.Blob{
		Item: media.Item{AnimalID: aid, Kind: media.KindDocument, Description: "Exame pós-cirúrgico", Filename: &name, SizeBytes: 1, UploadedBy: uid, UploadedAt: base},
		Data: []byte("x"),
	})
	require.NoError(t, err)

	for _, q := range []string{"ABDÔMEN", "PÓS-CIRÚRGICO"} {
		lib, err := repo.Library(ctx, media.LibraryFilter{Query: q, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, lib, 1, q)
	}
}
