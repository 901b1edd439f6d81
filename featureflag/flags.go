package featureflag

type Flag string

const (
	// Answers picking rays by walking the spatial index instead of scanning
	// every triangle. Geometry outside of the indexed plane can't be picked.
	FlagIndexedRaycast Flag = "INDEXED_RAYCAST"

	FlagDisableMeshUpload   Flag = "DISABLE_MESH_UPLOAD"
	FlagDisableCursorStream Flag = "DISABLE_CURSOR_STREAM"
)
