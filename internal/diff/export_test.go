package diff

// ClassifyCrateSourceDeltas exports classifyCrateSourceDeltas for testing.
var ClassifyCrateSourceDeltas = classifyCrateSourceDeltas //nolint:gochecknoglobals // test export

// UnpackTarGz exports unpackTarGz for testing.
var UnpackTarGz = unpackTarGz //nolint:gochecknoglobals // test export
