// Copyright (C) 2025 hashrand-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package session

import "time"

// GeneralPrefix tags session-derived identifiers in logs and metrics.
const GeneralPrefix = "session"

// Config holds the TTLs governing the magic-link / refresh / access token
// lifecycle (spec.md §4.D). RefreshTTL is "R" in the sliding-window math:
// rotation starts once a refresh record's age crosses RefreshTTL/3.
type Config struct {
	MagicTTL   time.Duration
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// RotationDecision is the outcome of evaluating a refresh record's age
// against the sliding window.
type RotationDecision int

const (
	// NoRotation: age < R/3. Only a fresh access token is issued.
	NoRotation RotationDecision = iota
	// Rotate: R/3 <= age < R. A fresh refresh record and access token
	// are issued, and the server's ephemeral keys are replaced.
	Rotate
	// Expired: age >= R. The caller must log in again.
	Expired
)

func (d RotationDecision) String() string {
	switch d {
	case NoRotation:
		return "no_rotation"
	case Rotate:
		return "rotate"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// AccessClaims are the JWT claims carried by a HashRand access token: a
// self-contained bearer credential the server validates without a storage
// round-trip (spec.md §3, "server-validated without persistence").
type AccessClaims struct {
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Status reports aggregate counts for observability.
type Status struct {
	ActiveRefreshRecords int `json:"activeRefreshRecords"`
	PendingMagicLinks    int `json:"pendingMagicLinks"`
}

func withDefaults(c Config) Config {
	if c.MagicTTL == 0 {
		c.MagicTTL = 15 * time.Minute
	}
	if c.AccessTTL == 0 {
		c.AccessTTL = 15 * time.Minute
	}
	if c.RefreshTTL == 0 {
		c.RefreshTTL = 3 * 24 * time.Hour
	}
	return c
}
