// internal/delivery/ws/protocol.go
package ws

import (
	"fmt"

	"forex-quotes-streamer/internal/core/domain/quotes"
)

// Действия клиентского протокола
const (
	ActionAssets       = "assets"
	ActionSubscribe    = "subscribe"
	ActionAssetHistory = "asset_history"
	ActionPoint        = "point"
	ActionError        = "error"
)

// Код ошибки для подписки на неизвестный инструмент
const CodeAssetNotFound = 412

// Request - запрос клиента
type Request struct {
	Action  string `json:"action"`
	AssetID int    `json:"assetId,omitempty"`
}

// AssetPayload - один инструмент в ответе assets
type AssetPayload struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// PointPayload - одна точка котировки в ответах asset_history и point
type PointPayload struct {
	AssetName string  `json:"assetName"`
	Time      int64   `json:"time"`
	AssetID   int     `json:"assetId"`
	Value     float64 `json:"value"`
}

// AssetsResponse - ответ со списком инструментов
type AssetsResponse struct {
	Action  string        `json:"action"`
	Message AssetsMessage `json:"message"`
}

type AssetsMessage struct {
	Assets []AssetPayload `json:"assets"`
}

// HistoryResponse - backfill истории котировок после подписки
type HistoryResponse struct {
	Action  string         `json:"action"`
	Message HistoryMessage `json:"message"`
}

type HistoryMessage struct {
	Points []PointPayload `json:"points"`
}

// PointResponse - одно живое обновление котировки
type PointResponse struct {
	Action  string       `json:"action"`
	Message PointPayload `json:"message"`
}

// ErrorResponse - ошибка, видимая клиенту
type ErrorResponse struct {
	Action  string `json:"action"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

// NewAssetsResponse собирает ответ со списком инструментов
func NewAssetsResponse(assets []quotes.Asset) AssetsResponse {
	payload := make([]AssetPayload, 0, len(assets))
	for _, a := range assets {
		payload = append(payload, AssetPayload{ID: a.ID, Name: a.Name})
	}
	return AssetsResponse{
		Action:  ActionAssets,
		Message: AssetsMessage{Assets: payload},
	}
}

// NewHistoryResponse собирает backfill-ответ из точек истории
func NewHistoryResponse(asset quotes.Asset, points []quotes.HistoryPoint) HistoryResponse {
	payload := make([]PointPayload, 0, len(points))
	for _, p := range points {
		payload = append(payload, PointPayload{
			AssetName: asset.Name,
			Time:      p.Time,
			AssetID:   asset.ID,
			Value:     p.Value,
		})
	}
	return HistoryResponse{
		Action:  ActionAssetHistory,
		Message: HistoryMessage{Points: payload},
	}
}

// NewPointResponse собирает живое обновление из сообщения шины
func NewPointResponse(asset quotes.Asset, msg quotes.BusMessage) PointResponse {
	return PointResponse{
		Action: ActionPoint,
		Message: PointPayload{
			AssetName: asset.Name,
			Time:      msg.Timestamp,
			AssetID:   asset.ID,
			Value:     msg.Value,
		},
	}
}

// NewAssetNotFoundResponse - ошибка подписки на неизвестный инструмент
func NewAssetNotFoundResponse() ErrorResponse {
	return ErrorResponse{
		Action:  ActionError,
		Code:    CodeAssetNotFound,
		Message: "Asset not found",
	}
}

// NewUnknownActionResponse - ошибка на нераспознанное действие
func NewUnknownActionResponse(action string) ErrorResponse {
	return ErrorResponse{
		Action:  ActionError,
		Message: fmt.Sprintf("Unknown action: %s", action),
	}
}
