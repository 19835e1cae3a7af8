// Package nixfile adapts the relacs-NIX container layout stored in
// HDF5 files to the descriptors the domain layer works with. All file
// access is delegated to the external go-hdf5 library; this package
// knows where relacs puts things and nothing about how bytes are laid
// out on disk.
//
// The container keeps all entity groups directly under the root and
// stores each entity as a single attribute-laden dataset. Nesting
// below that is encoded in dataset names, with ":" joining the path
// segments. Expected layout (mapping versions 1.0 and 1.1):
//
//	/data/<block>            empty group naming the recording block
//	/data_arrays/<name>      1-D float64 samples or event times;
//	                         attributes: type, unit, label,
//	                         sampling_interval, offset
//	/tags/<name>             [2]float64 {position, extent};
//	                         attributes: type, references
//	/multi_tags/<name>       [n]float64 onsets; attributes: type,
//	                         references, extents ([n]float64),
//	                         feature:<feature> per-presentation values
//	                         with unit in feature:<feature>@unit
//	/metadata/<path>         one placeholder dataset per section, the
//	                         section path joined with ":" (for example
//	                         "Step_001:RePro-Info:settings"); property
//	                         values ride as attribute <name> with the
//	                         unit in <name>@unit
//
// Entity type strings follow the relacs mapping: repro runs are tags
// whose type contains "relacs.repro_run", stimulus segments are
// multi-tags typed "relacs.stimulus" (1.1) or "nix.event.stimulus"
// (1.0), traces are data arrays typed "relacs.data.sampled" /
// "relacs.data.event" (1.1) or "nix.data.sampled" /
// "nix.events.position" (1.0).
package nixfile
