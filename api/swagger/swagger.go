package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "NADE API",
        "description": "Registro e acompanhamento de ocorrências do Núcleo de Apoio Disciplinar Escolar (NADE)",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Auth", "description": "Sessões e redefinição de senha"},
        {"name": "Students", "description": "Cadastro de alunos"},
        {"name": "Occurrences", "description": "Registro de ocorrências"},
        {"name": "Reports", "description": "Formulário NADE e relatório geral"},
        {"name": "Dashboard", "description": "Indicadores"},
        {"name": "Users", "description": "Gestão de usuários (admin)"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "security": [],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/LoginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/Error"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current session",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/auth/forgot-password": {
            "post": {
                "tags": ["Auth"],
                "summary": "Request a password reset link",
                "security": [],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"email": {"type": "string"}}}}
                ],
                "responses": {
                    "200": {"description": "Generic message, whether or not the email exists"}
                }
            }
        },
        "/auth/reset-password": {
            "post": {
                "tags": ["Auth"],
                "summary": "Reset password with a token",
                "security": [],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"token": {"type": "string"}, "password": {"type": "string"}}}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create student (admin, coordinator)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/Error"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update student (admin, coordinator)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete student (admin)",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/occurrences": {
            "get": {
                "tags": ["Occurrences"],
                "summary": "List occurrences, newest first",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "dateFrom", "in": "query", "type": "string"},
                    {"name": "dateTo", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Occurrences"],
                "summary": "Register occurrence (admin, coordinator)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OccurrenceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/occurrences/{id}": {
            "get": {
                "tags": ["Occurrences"],
                "summary": "Get occurrence",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "put": {
                "tags": ["Occurrences"],
                "summary": "Update occurrence fields (admin, coordinator)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OccurrenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "delete": {
                "tags": ["Occurrences"],
                "summary": "Delete occurrence (admin)",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/occurrences/{id}/report.pdf": {
            "get": {
                "tags": ["Reports"],
                "summary": "NADE form as PDF",
                "produces": ["application/pdf"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "PDF attachment"}
                }
            }
        },
        "/occurrences/{id}/report.html": {
            "get": {
                "tags": ["Reports"],
                "summary": "NADE form print view",
                "produces": ["text/html"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "HTML document"}
                }
            }
        },
        "/reports/occurrences.pdf": {
            "get": {
                "tags": ["Reports"],
                "summary": "General occurrence report (PDF)",
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF attachment"}
                }
            }
        },
        "/reports/occurrences.csv": {
            "get": {
                "tags": ["Reports"],
                "summary": "General occurrence report (CSV)",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV attachment"}
                }
            }
        },
        "/reports/occurrences.xlsx": {
            "get": {
                "tags": ["Reports"],
                "summary": "General occurrence report (XLSX)",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "responses": {
                    "200": {"description": "Spreadsheet attachment"}
                }
            }
        },
        "/dashboard/stats": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Dashboard statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/DashboardStats"}}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/users/{id}": {
            "put": {
                "tags": ["Users"],
                "summary": "Update user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UserRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Delete user",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/users/{id}/password": {
            "put": {
                "tags": ["Users"],
                "summary": "Set user password",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"newPassword": {"type": "string"}}}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "Error": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "LoginResponse": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "expiresIn": {"type": "integer"},
                "issuedAt": {"type": "string", "format": "date-time"},
                "user": {"type": "object"}
            }
        },
        "StudentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "class": {"type": "string"},
                "grade": {"type": "string"},
                "birthDate": {"type": "string", "format": "date"},
                "parentName": {"type": "string"},
                "parentPhone": {"type": "string"},
                "parentEmail": {"type": "string"},
                "enrollmentNumber": {"type": "string"},
                "status": {"type": "string", "enum": ["active", "inactive", "transferred"]}
            }
        },
        "OccurrenceRequest": {
            "type": "object",
            "properties": {
                "student": {"type": "string"},
                "type": {"type": "string"},
                "description": {"type": "string"},
                "date": {"type": "string"},
                "time": {"type": "string"},
                "location": {"type": "string"},
                "severity": {"type": "string", "enum": ["low", "medium", "high"]},
                "status": {"type": "string", "enum": ["open", "in_progress", "resolved", "closed"]},
                "solicitante": {"type": "string"},
                "envolvidos": {"type": "array", "items": {"type": "string"}},
                "motivos": {"type": "array", "items": {"type": "string"}},
                "acoes": {"type": "array", "items": {"type": "string"}},
                "conclusao": {"type": "string"},
                "observacoes": {"type": "string"},
                "parentNotified": {"type": "boolean"}
            }
        },
        "UserRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "coordinator", "teacher"]}
            }
        },
        "DashboardStats": {
            "type": "object",
            "properties": {
                "openOccurrences": {"type": "integer"},
                "todayOccurrences": {"type": "integer"},
                "recentOccurrences": {"type": "array", "items": {"type": "object"}},
                "occurrencesByType": {"type": "array", "items": {"type": "object", "properties": {"type": {"type": "string"}, "count": {"type": "integer"}}}}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
