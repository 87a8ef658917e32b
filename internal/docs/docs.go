// Package docs holds the OpenAPI document of the HTTP API, in the layout
// produced by swag init.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Service index",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/http.IndexResponse"}
                    }
                }
            }
        },
        "/asr": {
            "post": {
                "description": "Transcribes the uploaded audio. WAV uploads are passed to the model as .wav, anything else as .webm.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["speech"],
                "summary": "Speech to text",
                "parameters": [
                    {
                        "type": "file",
                        "description": "Recorded audio",
                        "name": "audio",
                        "in": "formData",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Transcript",
                        "schema": {"$ref": "#/definitions/service.TranscriptResult"}
                    },
                    "400": {
                        "description": "Missing, unselected or too small upload",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    },
                    "413": {
                        "description": "Upload too large",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    },
                    "500": {
                        "description": "Model unavailable or recognition failed",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/http.HealthResponse"}
                    }
                }
            }
        },
        "/models": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Model status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/http.ModelsResponse"}
                    }
                }
            }
        },
        "/tts": {
            "post": {
                "description": "Synthesizes the text and returns a mono 16-bit PCM WAV file.",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["audio/wav", "application/json"],
                "tags": ["speech"],
                "summary": "Text to speech",
                "parameters": [
                    {
                        "description": "Text to synthesize (JSON or form field text)",
                        "name": "request",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/http.SynthesisRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "WAV audio",
                        "schema": {"type": "file"}
                    },
                    "400": {
                        "description": "Missing or too long text",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    },
                    "500": {
                        "description": "Model unavailable or synthesis failed",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            }
        }
    },
    "definitions": {
        "backend.Segment": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "start": {"type": "number"},
                "end": {"type": "number"},
                "text": {"type": "string"}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "No text provided"},
                "traceback": {"type": "string"}
            }
        },
        "http.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "tts_loaded": {"type": "boolean"},
                "asr_loaded": {"type": "boolean"},
                "timestamp": {"type": "string", "example": "2025-01-01T12:00:00Z"}
            }
        },
        "http.IndexResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "endpoints": {
                    "type": "object",
                    "additionalProperties": {"type": "string"}
                },
                "models": {"$ref": "#/definitions/http.ModelInfo"}
            }
        },
        "http.ModelInfo": {
            "type": "object",
            "properties": {
                "tts": {"type": "string"},
                "asr": {"type": "string"},
                "asr_path": {"type": "string"}
            }
        },
        "http.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/model.ModelInstance"}
                }
            }
        },
        "http.SynthesisRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string", "example": "Hello world"}
            }
        },
        "model.ModelInstance": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "kind": {"type": "string", "enum": ["tts", "stt"]},
                "provider": {"type": "string"},
                "path": {"type": "string"},
                "status": {"type": "string", "enum": ["unloaded", "loading", "loaded", "failed"]},
                "error": {"type": "string"},
                "loaded_at": {"type": "string"}
            }
        },
        "service.TranscriptResult": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "language": {"type": "string"},
                "method": {"type": "string", "enum": ["primary", "alternate"]},
                "segments": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/backend.Segment"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "voxgate API",
	Description:      "Text to speech and speech to text gateway.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
