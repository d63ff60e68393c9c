/*
Package coord provides structural-descriptor analysis for molecular-dynamics
trajectories of supported metal nanoclusters (Pt, with Sn and O as secondary
species).

The root package contains the data model (Frame, descriptor records), the
trajectory interfaces and the error taxonomy shared by the subpackages. The
analysis itself lives in the subpackages:

	param     parameter tables, defaults, YAML overlay and validation
	neighbor  per-frame neighbor tables
	cn        smooth coordination numbers and the four GCN variants
	boo       Steinhardt bond-orientational order parameters (Q4/Q6)
	cluster   whole-cluster order parameters and geometry statistics
	pipeline  per-frame orchestration and trajectory drivers
	traj/xyz  (optionally compressed) multi-frame XYZ trajectories
	histo     fixed-divider histograms for descriptor distributions
	report    CSV time series and output validation
	descplot  descriptor time-series plots

Per-frame computations are stateless: every descriptor depends only on the
frame's coordinates and the fixed parameter table, so independent frames can be
processed concurrently with no shared mutable state (see pipeline.RunConc).
*/
package coord
