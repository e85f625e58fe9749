// Copyright 2025 ScentStack
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package catalog

import (
	"context"

	"scentstack/platform/enrichment"
	"scentstack/platform/store"
)

// PerfumeStore is the document-store surface the handler depends on.
type PerfumeStore interface {
	List(ctx context.Context) ([]store.Perfume, error)
	FindByName(ctx context.Context, name string) (*store.Perfume, error)
	FindByID(ctx context.Context, id string) (*store.Perfume, error)
	Insert(ctx context.Context, p store.Perfume) (*store.Perfume, error)
	Update(ctx context.Context, id string, patch store.PerfumePatch) (*store.Perfume, error)
	Delete(ctx context.Context, id string) error
}

// Enricher fetches best-effort top notes for a perfume name.
type Enricher interface {
	TopNotes(ctx context.Context, name string) enrichment.Result
}

// CreateRequest is the POST payload.
type CreateRequest struct {
	Name     string   `json:"name"`
	Status   string   `json:"status"`
	PriceBDT *float64 `json:"priceBDT"`
}

// UpdateRequest is the PUT payload. Pointer fields distinguish "absent" from
// "set": only supplied fields participate in the update.
type UpdateRequest struct {
	ID       string   `json:"id"`
	TopNotes *string  `json:"topNotes"`
	PriceBDT *float64 `json:"priceBDT"`
	Status   *string  `json:"status"`
}

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	Message string `json:"message"`
}

// ErrorDetail carries a machine-readable code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
