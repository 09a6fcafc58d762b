package chart

import (
	"context"
	"time"

	"shelter-clinical-records/internal/domain/animals"
	"shelter-clinical-records/internal/domain/media"
	"shelter-clinical-records/internal/domain/pharmacy"
	"shelter-clinical-records/internal/domain/records"

	"golang.org/x/sync/errgroup"
)

const (
	vaccineWindow = 30 * 24 * time.Hour
	authoredLimit = 50
)

type AnimalReader interface {
	Get(ctx context.Context, id int64) (animals.Animal, error)
}

type RecordReader interface {
	CurrentHealthRecord(ctx context.Context, animalID int64) (*records.HealthRecord, error)
	HealthRecords(ctx context.Context, animalID int64) ([]records.HealthRecord, error)
	Vaccines(ctx context.Context, animalID int64) ([]records.Vaccine, error)
	Hospitalizations(ctx context.Context, animalID int64) ([]records.Hospitalization, error)
	Procedures(ctx context.Context, animalID int64) ([]records.Procedure, error)
}

type PharmacyReader interface {
	Prescriptions(ctx context.Context, animalID int64) ([]pharmacy.Prescription, error)
	Medications(ctx context.Context) ([]pharmacy.Medication, error)
}

type MediaReader interface {
	List(ctx context.Context, kind media.Kind, animalID int64) ([]media.Item, error)
}

// Service arma vistas de lectura; las consultas independientes corren en paralelo.
type Service struct {
	repo     Repository
	animals  AnimalReader
	records  RecordReader
	pharmacy PharmacyReader
	media    MediaReader
	now      func() time.Time
}

func NewService(repo Repository, a AnimalReader, rec RecordReader, ph PharmacyReader, md MediaReader) *Service {
	return &Service{
		repo:     repo,
		animals:  a,
		records:  rec,
		pharmacy: ph,
		media:    md,
		now:      time.Now,
	}
}

// VetChart carga la ficha. El animal se busca primero para cortar en 404.
func (s *Service) VetChart(ctx context.Context, animalID int64) (VetChart, error) {
	return s.vetChart(ctx, animalID, false)
}

// History es la ficha más todas las fichas de salud.
func (s *Service) History(ctx context.Context, animalID int64) (VetChart, error) {
	return s.vetChart(ctx, animalID, true)
}

func (s *Service) vetChart(ctx context.Context, animalID int64, history bool) (VetChart, error) {
	a, err := s.animals.Get(ctx, animalID)
	if err != nil {
		return VetChart{}, err
	}
	c := VetChart{Animal: a}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		c.Current, err = s.records.CurrentHealthRecord(gctx, animalID)
		return err
	})
	if history {
		g.Go(func() (err error) {
			c.HealthRecords, err = s.records.HealthRecords(gctx, animalID)
			return err
		})
	}
	g.Go(func() (err error) {
		c.Vaccines, err = s.records.Vaccines(gctx, animalID)
		return err
	})
	g.Go(func() (err error) {
		c.Hospitalizations, err = s.records.Hospitalizations(gctx, animalID)
		return err
	})
	g.Go(func() (err error) {
		c.Procedures, err = s.records.Procedures(gctx, animalID)
		return err
	})
	g.Go(func() (err error) {
		c.Prescriptions, err = s.pharmacy.Prescriptions(gctx, animalID)
		return err
	})
	g.Go(func() (err error) {
		c.Medications, err = s.pharmacy.Medications(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.Documents, err = s.media.List(gctx, media.KindDocument, animalID)
		return err
	})
	g.Go(func() (err error) {
		c.Photos, err = s.media.List(gctx, media.KindPhoto, animalID)
		return err
	})
	if err := g.Wait(); err != nil {
		return VetChart{}, err
	}
	return c, nil
}

func (s *Service) ViewerChart(ctx context.Context, animalID int64) (ViewerChart, error) {
	a, err := s.animals.Get(ctx, animalID)
	if err != nil {
		return ViewerChart{}, err
	}
	c := ViewerChart{Animal: a}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		c.Current, err = s.records.CurrentHealthRecord(gctx, animalID)
		return err
	})
	g.Go(func() (err error) {
		c.Photos, err = s.media.List(gctx, media.KindPhoto, animalID)
		return err
	})
	if err := g.Wait(); err != nil {
		return ViewerChart{}, err
	}
	return c, nil
}

// Authored devuelve lo firmado por userID, una consulta por tipo.
func (s *Service) Authored(ctx context.Context, userID int64) (Authored, error) {
	lists := make([][]AuthoredEntry, len(EntryKinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range EntryKinds {
		g.Go(func() (err error) {
			lists[i], err = s.repo.Authored(gctx, userID, kind, authoredLimit)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(Authored, len(EntryKinds))
	for i, kind := range EntryKinds {
		out[kind] = lists[i]
	}
	return out, nil
}

func (s *Service) Report(ctx context.Context) (Report, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	rep := Report{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rep.ByStatus, err = s.repo.CountAnimalsByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		rep.BySpecies, err = s.repo.CountAnimalsBySpecies(gctx)
		return err
	})
	g.Go(func() (err error) {
		rep.OpenHospitalizations, err = s.repo.OpenHospitalizations(gctx)
		return err
	})
	g.Go(func() (err error) {
		rep.LowStock, err = s.repo.LowStockMedications(gctx)
		return err
	})
	g.Go(func() (err error) {
		rep.VaccinesDue, err = s.repo.VaccinesDue(gctx, today, today.Add(vaccineWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return rep, nil
}
