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

// Package main is the entry point for the ScentStack catalog service.
//
// The catalog service exposes CRUD over perfume records backed by MongoDB
// and enriches newly created records with scent-note metadata from an
// external lookup service.
//
// Usage:
//
//	./catalogd
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8080)
//	MONGODB_URI - MongoDB connection string (required)
//	MONGODB_DATABASE - database name (default: from URI path)
//	NOTES_API_URL - scent-metadata service endpoint
//	NOTES_API_KEY - scent-metadata service credential (required)
//	REDIS_ADDR - optional Redis address for the note lookup cache
//	CATALOG_CONFIG_FILE - optional YAML config file
package main

import (
	"scentstack/platform/catalog"
)

func main() {
	catalog.Run()
}
