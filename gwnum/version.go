package gwnum

// Version identifies this build of the library. NewWithVersion compares the caller-supplied
// version string against this constant (spec 6's version/struct-size mismatch
// guard, the Go analogue of a C ABI header mismatch check) so a caller built
// against a different gwnum release fails fast with ErrVersionMismatch rather than
// silently misinterpreting a Handle's memory layout.
const Version = "1.0.0"

// structRevision increments whenever Handle's exported field set changes shape in a
// way that would matter to a caller persisting a raw snapshot (it does not, today,
// since Handle carries no exported mutable fields beyond what New returns) but is
// kept for parity with spec 6's STRUCT_SIZE check.
const structRevision = 1

func checkVersion(callerVersion string) error {
	if callerVersion == "" {
		return nil
	}
	if callerVersion != Version {
		return newErr(ErrVersionMismatch, "caller linked against gwnum "+callerVersion+", this build is "+Version)
	}
	return nil
}
