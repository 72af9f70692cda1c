package db

// Schema defines the SQLite database schema for the structure catalogue.
// Tables are created on every open when absent. No foreign keys are declared:
// composition edges may point at structures that no longer exist, and the
// catalogue enforces delete safety itself.
const Schema = `
CREATE TABLE IF NOT EXISTS structures (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE,
    formula TEXT NOT NULL,
    smiles TEXT UNIQUE,
    charge INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS components (
    structure_id INTEGER NOT NULL,
    component_id INTEGER NOT NULL,
    count INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (structure_id, component_id)
);

CREATE INDEX IF NOT EXISTS idx_components_component_id ON components(component_id);

CREATE TABLE IF NOT EXISTS property (
    structure_id INTEGER PRIMARY KEY,
    decomp_temp REAL,
    density REAL,
    diss_temp REAL,
    formation_enthalpy REAL,
    impact_sensitive REAL,
    friction_sensitivity REAL,
    det_velocity REAL,
    det_pressure REAL,
    n_content REAL,
    o_content REAL,
    no_content REAL,
    "references" TEXT,
    remarks TEXT
);

CREATE TABLE IF NOT EXISTS images (
    structure_id INTEGER PRIMARY KEY,
    filename TEXT NOT NULL,
    image BLOB NOT NULL
);
`

// Column lists in declaration order. The bulk transfer tables use the same order.
var (
	StructureColumns = []string{"id", "name", "formula", "smiles", "charge"}
	ComponentColumns = []string{"structure_id", "component_id", "count"}
	PropertyColumns  = []string{
		"structure_id",
		"decomp_temp",
		"density",
		"diss_temp",
		"formation_enthalpy",
		"impact_sensitive",
		"friction_sensitivity",
		"det_velocity",
		"det_pressure",
		"n_content",
		"o_content",
		"no_content",
		"references",
		"remarks",
	}
)

// DefaultComponentCount is the multiplicity of an edge when none is given.
const DefaultComponentCount = 1
