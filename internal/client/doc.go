// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the client application runtime.
//
// It wires the local store, the server transport, the sync engine and the
// background sync worker into a single process lifecycle, and keeps the
// account keys in a key file next to the database.
package client
