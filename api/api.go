// Пакет api содержит OpenAPI-контракт Compose Suite.
// Контракт встраивается в бинарный файл и используется для проверки
// входящих запросов и отдаётся клиентам по GET /api/v1/openapi.yaml.
package api

import _ "embed"

// Spec — OpenAPI 3.0 спецификация HTTP API.
//
//go:embed openapi.yaml
var Spec []byte
