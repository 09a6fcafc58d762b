// Package docs registra el documento OpenAPI que sirve /swagger/*.
// Las anotaciones viven en los handlers; este archivo se mantiene a mano.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "SessionCookie": {"type": "apiKey", "in": "header", "name": "Cookie"},
        "CSRFToken": {"type": "apiKey", "in": "header", "name": "X-CSRF-Token"}
    },
    "paths": {
        "/health": {
            "get": {"tags": ["ops"], "summary": "Health check", "produces": ["text/plain"], "responses": {"200": {"description": "ok"}}}
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login",
                "consumes": ["application/x-www-form-urlencoded"],
                "parameters": [
                    {"type": "string", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {"303": {"description": "dashboard del rol"}, "401": {"description": "credenciales inválidas"}, "429": {"description": "rate limit"}}
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Registro",
                "consumes": ["application/x-www-form-urlencoded"],
                "parameters": [
                    {"type": "string", "name": "name", "in": "formData", "required": true},
                    {"type": "string", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "name": "password", "in": "formData", "required": true},
                    {"enum": ["veterinary", "viewer"], "type": "string", "name": "role", "in": "formData", "required": true}
                ],
                "responses": {"303": {"description": "/auth/login"}, "400": {"description": "validación o email duplicado"}}
            }
        },
        "/auth/logout": {
            "post": {"tags": ["auth"], "summary": "Logout", "responses": {"303": {"description": "/auth/login"}}}
        },
        "/user/dashboard": {
            "get": {"tags": ["viewer"], "summary": "Dashboard de visitante", "produces": ["application/json", "text/html"], "responses": {"200": {"description": "animales a cargo"}}}
        },
        "/user/animal/{id}": {
            "get": {
                "tags": ["viewer"],
                "summary": "Ficha de visitante",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "animal, ficha de salud actual y fotos"}, "404": {"description": "no existe"}}
            }
        },
        "/vet/dashboard": {
            "get": {"tags": ["vet"], "summary": "Dashboard veterinario", "responses": {"200": {"description": "animales con conteos"}}}
        },
        "/vet/animal": {
            "post": {"tags": ["vet"], "summary": "Alta de animal", "consumes": ["multipart/form-data", "application/x-www-form-urlencoded"], "responses": {"303": {"description": "ficha"}, "400": {"description": "validación"}}}
        },
        "/vet/animal/{id}": {
            "get": {
                "tags": ["vet"],
                "summary": "Ficha clínica",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "ficha completa"}, "404": {"description": "no existe"}}
            }
        },
        "/vet/animal/{id}/hospitalization": {
            "post": {
                "tags": ["vet"],
                "summary": "Internación",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"303": {"description": "ficha"}, "400": {"description": "validación"}, "404": {"description": "no existe"}}
            }
        },
        "/vet/animal/{id}/receita": {
            "post": {
                "tags": ["vet"],
                "summary": "Receta",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"303": {"description": "ficha"}, "400": {"description": "validación"}}
            }
        },
        "/vet/animal/{id}/document": {
            "post": {
                "tags": ["vet"],
                "summary": "Subir documento",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"type": "file", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "name": "description", "in": "formData"}
                ],
                "responses": {"303": {"description": "ficha"}, "400": {"description": "validación"}, "413": {"description": "demasiado grande"}}
            }
        },
        "/vet/search": {
            "get": {
                "tags": ["vet"],
                "summary": "Búsqueda de animales",
                "parameters": [
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "string", "name": "species", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "resultados"}}
            }
        },
        "/vet/relatorios": {
            "get": {"tags": ["vet"], "summary": "Reportes", "responses": {"200": {"description": "conteos y alertas"}}}
        }
    }
}`

// SwaggerInfo guarda los metadatos exportados; el router ajusta Host si hace falta.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Shelter Clinical Records",
	Description:      "Prontuário clínico de abrigo: sesiones, roles y registros clínicos.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
