package flux

import _ "embed"

// sampleGrid is a simplified ORDEM-like grid bundled for offline and test
// environments. Production deployments point ORBITGUARD_FLUX_TABLE at a
// full export with the same schema.
//
//go:embed ordem_flux_sample.csv
var sampleGrid string
