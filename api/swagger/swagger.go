package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SkillFlow Minting API",
        "description": "Credential minting wizard for verified learner skills",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {
            "name": "Minting",
            "description": "Skill credential minting sessions"
        },
        {
            "name": "Metrics",
            "description": "Operational metrics"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "Database unreachable"
                    }
                }
            }
        },
        "/api/v1/metrics/summary": {
            "get": {
                "tags": [
                    "Metrics"
                ],
                "summary": "Minting metrics summary",
                "parameters": [],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/minting/sessions": {
            "post": {
                "tags": [
                    "Minting"
                ],
                "summary": "Open a minting session",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/minting/sessions/{id}": {
            "get": {
                "tags": [
                    "Minting"
                ],
                "summary": "Get the session state",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Minting"
                ],
                "summary": "Close a session",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Closed"
                    },
                    "409": {
                        "description": "Mint in progress"
                    }
                }
            }
        },
        "/api/v1/minting/sessions/{id}/skills/load": {
            "post": {
                "tags": [
                    "Minting"
                ],
                "summary": "Load the learner's mintable skills",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/minting/sessions/{id}/skills/select": {
            "post": {
                "tags": [
                    "Minting"
                ],
                "summary": "Select the skill to mint",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SelectSkillRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/minting/sessions/{id}/steps/next": {
            "post": {
                "tags": [
                    "Minting"
                ],
                "summary": "Advance the wizard",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/minting/sessions/{id}/steps/previous": {
            "post": {
                "tags": [
                    "Minting"
                ],
                "summary": "Move the wizard back",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/minting/sessions/{id}/steps/goto": {
            "post": {
                "tags": [
                    "Minting"
                ],
                "summary": "Jump to a wizard step",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/GoToStepRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/minting/sessions/{id}/evidence": {
            "post": {
                "tags": [
                    "Minting"
                ],
                "summary": "Submit evidence (JSON or multipart with a file part)",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateEvidenceRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "consumes": [
                    "application/json",
                    "multipart/form-data"
                ]
            }
        },
        "/api/v1/minting/sessions/{id}/evidence/validation": {
            "get": {
                "tags": [
                    "Minting"
                ],
                "summary": "Evidence readiness for the selected skill",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/minting/sessions/{id}/evidence/{evidenceId}": {
            "patch": {
                "tags": [
                    "Minting"
                ],
                "summary": "Patch an evidence item",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "evidenceId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateEvidenceRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Minting"
                ],
                "summary": "Remove an evidence item",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "evidenceId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Removed"
                    }
                }
            }
        },
        "/api/v1/minting/sessions/{id}/evidence/{evidenceId}/verify": {
            "post": {
                "tags": [
                    "Minting"
                ],
                "summary": "Request verification of an evidence item",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "evidenceId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Verified or rejected",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "202": {
                        "description": "Queued",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/minting/sessions/{id}/metadata": {
            "post": {
                "tags": [
                    "Minting"
                ],
                "summary": "Build credential metadata",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/minting/sessions/{id}/mint": {
            "post": {
                "tags": [
                    "Minting"
                ],
                "summary": "Mint the credential",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Minted",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "502": {
                        "description": "Mint failed, transaction included",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/minting/sessions/{id}/credential": {
            "get": {
                "tags": [
                    "Minting"
                ],
                "summary": "Get the minted credential",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/minting/sessions/{id}/certificate": {
            "post": {
                "tags": [
                    "Minting"
                ],
                "summary": "Render a PDF certificate",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/minting/sessions/{id}/reset": {
            "post": {
                "tags": [
                    "Minting"
                ],
                "summary": "Reset the wizard",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/minting/transactions": {
            "get": {
                "tags": [
                    "Minting"
                ],
                "summary": "List mint attempts",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "type": "array",
                        "items": {
                            "type": "string"
                        },
                        "collectionFormat": "multi"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/minting/transactions/export": {
            "post": {
                "tags": [
                    "Minting"
                ],
                "summary": "Export the mint history as CSV",
                "parameters": [
                    {
                        "name": "X-User-ID",
                        "in": "header",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/minting/downloads/{token}": {
            "get": {
                "tags": [
                    "Minting"
                ],
                "summary": "Download a signed file",
                "produces": [
                    "application/octet-stream"
                ],
                "parameters": [
                    {
                        "name": "token",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File"
                    },
                    "403": {
                        "description": "Invalid or expired link"
                    }
                }
            }
        }
    },
    "definitions": {
        "SelectSkillRequest": {
            "type": "object",
            "properties": {
                "skillId": {
                    "type": "string"
                }
            },
            "required": [
                "skillId"
            ]
        },
        "GoToStepRequest": {
            "type": "object",
            "properties": {
                "step": {
                    "type": "string",
                    "enum": [
                        "skill_selection",
                        "evidence_verification",
                        "confirmation",
                        "minting",
                        "success"
                    ]
                }
            },
            "required": [
                "step"
            ]
        },
        "CreateEvidenceRequest": {
            "type": "object",
            "properties": {
                "type": {
                    "type": "string",
                    "enum": [
                        "project",
                        "github",
                        "certificate",
                        "assessment",
                        "other"
                    ]
                },
                "title": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "url": {
                    "type": "string"
                }
            },
            "required": [
                "type",
                "title"
            ]
        },
        "UpdateEvidenceRequest": {
            "type": "object",
            "properties": {
                "type": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "url": {
                    "type": "string"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
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
