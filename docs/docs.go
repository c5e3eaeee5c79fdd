// Package docs содержит Swagger-описание маршрутов /api/v1, собранное по аннотациям обработчиков.
// При изменении аннотаций описание обновляется вместе с ними.
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
		"/evaluation": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Открыт ли раздел фото-оценки и сколько дней осталось до открытия.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Evaluation"
				],
				"summary": "Доступ к фото-оценке",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"401": {
						"description": "Нет сессии",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				}
			}
		},
		"/login": {
			"post": {
				"description": "Аутентифицирует пользователя по имени и паролю. Возвращает JWT.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Auth"
				],
				"summary": "Авторизация пользователя",
				"parameters": [
					{
						"description": "Учетные данные пользователя",
						"name": "request",
						"in": "body",
						"schema": {
							"$ref": "#/definitions/models.LoginRequest"
						},
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Успешная авторизация",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Некорректный JSON",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"401": {
						"description": "Неверные учетные данные",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"422": {
						"description": "Ошибка валидации",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"500": {
						"description": "Внутренняя ошибка сервера",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				}
			}
		},
		"/plans/{kind}": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Возвращает сохранённый план и его разбор по дням. Нераспознанный текст приходит в fallback.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Plans"
				],
				"summary": "План",
				"parameters": [
					{
						"type": "string",
						"description": "diet или workout",
						"name": "kind",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Неизвестный вид плана",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"401": {
						"description": "Нет сессии",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"500": {
						"description": "Ошибка хранилища",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Заменяет текст плана и возвращает его разбор по дням.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Plans"
				],
				"summary": "Сохранить план",
				"parameters": [
					{
						"type": "string",
						"description": "diet или workout",
						"name": "kind",
						"in": "path",
						"required": true
					},
					{
						"description": "Текст плана",
						"name": "request",
						"in": "body",
						"schema": {
							"$ref": "#/definitions/models.PlanRequest"
						},
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Некорректный запрос",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"401": {
						"description": "Нет сессии",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"422": {
						"description": "Ошибка валидации",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"500": {
						"description": "Ошибка хранилища",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				}
			}
		},
		"/progress": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Возвращает записи пользователя от новых к старым. Границы from и to необязательны и включаются.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Progress"
				],
				"summary": "Отметки за период",
				"parameters": [
					{
						"type": "string",
						"description": "Начало периода, YYYY-MM-DD",
						"name": "from",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Конец периода, YYYY-MM-DD",
						"name": "to",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Некорректный период",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"401": {
						"description": "Нет сессии",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"500": {
						"description": "Ошибка хранилища",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				}
			}
		},
		"/progress/summary": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Серии тренировок и питания на дату as_of, процент выполнения программы и календарь.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Progress"
				],
				"summary": "Сводка прогресса",
				"parameters": [
					{
						"type": "string",
						"description": "Дата сводки, YYYY-MM-DD. По умолчанию сегодня",
						"name": "as_of",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Некорректная дата",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"401": {
						"description": "Нет сессии",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"500": {
						"description": "Ошибка хранилища",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				}
			}
		},
		"/progress/{date}": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Возвращает отметки тренировки и питания за день. Если записи нет, обе отметки false.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Progress"
				],
				"summary": "Отметки за день",
				"parameters": [
					{
						"type": "string",
						"description": "Дата в формате YYYY-MM-DD",
						"name": "date",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Некорректная дата",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"401": {
						"description": "Нет сессии",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"500": {
						"description": "Ошибка хранилища",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				}
			}
		},
		"/progress/{date}/toggle": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Инвертирует отметку тренировки или питания за день и возвращает итоговую запись.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Progress"
				],
				"summary": "Переключить отметку",
				"parameters": [
					{
						"type": "string",
						"description": "Дата в формате YYYY-MM-DD",
						"name": "date",
						"in": "path",
						"required": true
					},
					{
						"description": "Вид активности: workout или diet",
						"name": "request",
						"in": "body",
						"schema": {
							"$ref": "#/definitions/models.ToggleRequest"
						},
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Некорректный запрос",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"401": {
						"description": "Нет сессии",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"422": {
						"description": "Ошибка валидации",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"500": {
						"description": "Ошибка хранилища",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				}
			}
		},
		"/register": {
			"post": {
				"description": "Создаёт учётную запись. Отсчёт дней до открытия фото-оценки начинается с этого момента.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Auth"
				],
				"summary": "Регистрация пользователя",
				"parameters": [
					{
						"description": "Данные пользователя",
						"name": "request",
						"in": "body",
						"schema": {
							"$ref": "#/definitions/models.RegisterRequest"
						},
						"required": true
					}
				],
				"responses": {
					"201": {
						"description": "Пользователь создан",
						"schema": {
							"$ref": "#/definitions/response.Response"
						}
					},
					"400": {
						"description": "Некорректный JSON",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"409": {
						"description": "Пользователь уже существует",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"422": {
						"description": "Ошибка валидации",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					},
					"500": {
						"description": "Внутренняя ошибка сервера",
						"schema": {
							"$ref": "#/definitions/response.ErrorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"models.LoginRequest": {
			"type": "object",
			"required": [
				"password",
				"username"
			],
			"properties": {
				"password": {
					"type": "string"
				},
				"username": {
					"type": "string"
				}
			}
		},
		"models.PlanRequest": {
			"type": "object",
			"required": [
				"content"
			],
			"properties": {
				"content": {
					"type": "string",
					"maxLength": 20000
				}
			}
		},
		"models.RegisterRequest": {
			"type": "object",
			"required": [
				"email",
				"password",
				"username"
			],
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string",
					"minLength": 8
				},
				"username": {
					"type": "string",
					"maxLength": 64,
					"minLength": 3
				}
			}
		},
		"models.ToggleRequest": {
			"type": "object",
			"required": [
				"activity"
			],
			"properties": {
				"activity": {
					"type": "string",
					"enum": [
						"workout",
						"diet"
					]
				}
			}
		},
		"response.ErrorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string",
					"example": "invalid request body"
				},
				"status": {
					"type": "string",
					"example": "Error"
				}
			}
		},
		"response.Response": {
			"type": "object",
			"properties": {
				"data": {},
				"error": {
					"type": "string"
				},
				"status": {
					"type": "string"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "Type \"Bearer\" followed by a space and JWT token.",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Fitness Progress API",
	Description:      "API прогресса программы: отметки тренировок и питания, серии, доступ к фото-оценке.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
