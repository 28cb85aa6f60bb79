package tle

import _ "embed"

// SampleTLE is a small bundled fixture used when the ingestion collaborator
// is configured with source "sample" (offline and test environments).
//
//go:embed sample_tle.txt
var SampleTLE string
