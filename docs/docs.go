// Package docs registers the OpenAPI document served at /swagger/*. It is
// maintained by hand alongside the swag annotations in cmd/server.
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
    "paths": {
        "/api/v1/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign up",
                "parameters": [
                    {"description": "Account", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.RegisterInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/api.authResponse"}},
                    "400": {"description": "validation failed", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.authResponse"}},
                    "401": {"description": "invalid credentials", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        },
        "/api/v1/events": {
            "get": {
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "List active events",
                "parameters": [
                    {"type": "string", "description": "Title or description search", "name": "search", "in": "query"},
                    {"type": "integer", "description": "Category ID", "name": "category_id", "in": "query"},
                    {"type": "string", "description": "Day of the week", "name": "weekday", "in": "query"},
                    {"type": "integer", "description": "Page number", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "invalid filter", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        },
        "/api/v1/events/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Get event",
                "parameters": [
                    {"type": "integer", "description": "Event ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/event.Detail"}},
                    "404": {"description": "not found", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        },
        "/api/v1/events/{id}/register": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "Register for an event",
                "parameters": [
                    {"type": "integer", "description": "Event ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "401": {"description": "login required", "schema": {"$ref": "#/definitions/apperr.AppError"}},
                    "403": {"description": "event archived", "schema": {"$ref": "#/definitions/apperr.AppError"}},
                    "409": {"description": "full or already registered", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        },
        "/api/v1/events/{id}/unregister": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "Cancel a registration",
                "parameters": [
                    {"type": "integer", "description": "Event ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "not registered", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        },
        "/api/v1/categories": {
            "get": {
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "List categories",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/category.Category"}}}
                }
            }
        },
        "/api/v1/admin/events": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List all events",
                "parameters": [
                    {"type": "string", "description": "Search", "name": "search", "in": "query"},
                    {"type": "string", "description": "active or archived", "name": "status", "in": "query"},
                    {"type": "integer", "description": "Page number", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "forbidden", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Create event",
                "parameters": [
                    {"description": "Event", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/event.Input"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "validation failed", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        },
        "/api/v1/admin/categories": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List categories with event counts",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/category.Category"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Create category",
                "parameters": [
                    {"description": "Category", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/category.Input"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "validation failed", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        },
        "/api/v1/admin/categories/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Delete category",
                "parameters": [
                    {"type": "integer", "description": "Category ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "category still has events", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        },
        "/api/v1/admin/users/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Delete user",
                "parameters": [
                    {"type": "integer", "description": "User ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "own account or user with events", "schema": {"$ref": "#/definitions/apperr.AppError"}}
                }
            }
        }
    },
    "definitions": {
        "apperr.AppError": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}},
                "redirect": {"type": "string"}
            }
        },
        "api.loginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "api.authResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "token": {"type": "string"},
                "expires_in": {"type": "integer"},
                "user": {"$ref": "#/definitions/user.User"}
            }
        },
        "user.RegisterInput": {
            "type": "object",
            "required": ["name", "email", "password"],
            "properties": {
                "name": {"type": "string", "maxLength": 255},
                "email": {"type": "string", "maxLength": 255},
                "password": {"type": "string", "minLength": 8, "maxLength": 72},
                "password_confirmation": {"type": "string"}
            }
        },
        "user.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "avatar_path": {"type": "string"},
                "roles": {"type": "array", "items": {"type": "string"}},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "category.Category": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "events_count": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "category.Input": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "maxLength": 255}
            }
        },
        "event.Input": {
            "type": "object",
            "required": ["title", "description", "start_at", "end_at", "place", "category_id"],
            "properties": {
                "title": {"type": "string", "maxLength": 255},
                "description": {"type": "string"},
                "start_at": {"type": "string"},
                "end_at": {"type": "string"},
                "place": {"type": "string", "maxLength": 255},
                "is_free": {"type": "boolean"},
                "price": {"type": "number", "minimum": 0, "maximum": 99999999.99},
                "category_id": {"type": "integer"},
                "capacity": {"type": "integer", "minimum": 1}
            }
        },
        "event.Detail": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "start_at": {"type": "string"},
                "end_at": {"type": "string"},
                "place": {"type": "string"},
                "capacity": {"type": "integer"},
                "price": {"type": "number"},
                "is_free": {"type": "boolean"},
                "image_path": {"type": "string"},
                "category_id": {"type": "integer"},
                "category_name": {"type": "string"},
                "status": {"type": "string", "enum": ["active", "archived"]},
                "registered_count": {"type": "integer"},
                "available_places": {"type": "integer"},
                "is_full": {"type": "boolean"},
                "creator_name": {"type": "string"},
                "is_registered": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Event Planner API",
	Description:      "Events, categories and capacity-checked registrations with JWT auth",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
