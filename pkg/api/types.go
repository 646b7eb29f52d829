package api

import "github.com/docker/itemd/pkg/item"

// CreateItemRequest represents a request to create an item.
// Any id sent by the client is ignored.
type CreateItemRequest = item.Fields

// UpdateItemRequest represents a partial update of an item.
// Fields left out of the body keep their current value.
type UpdateItemRequest = item.Patch

// ToggleItemRequest represents a request to set the completion state of an item
type ToggleItemRequest struct {
	IsComplete *bool `json:"isComplete"`
}

// MessageResponse is the body of informational and not-found responses
type MessageResponse struct {
	Message string `json:"message"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

// ItemNotFound is the message returned with 404 responses.
const ItemNotFound = "Item not found"
