// Package penguins is a dashboard over the Palmer penguins dataset.
//
// Records are loaded by the dataset package from the embedded sample, a CSV
// file, a SQL table or an S3 object. A dashboard.Session holds the species and
// island selection and exposes the memoised filtered view, and the
// dashboard.Dashboard re-renders the panels bound to whatever changed:
//
//	ds, err := dataset.Load(ctx, dataset.EmbeddedSource{})
//	s, err := dashboard.NewSession(ds)
//	board := dashboard.New(s)
//	s.SetIslands(dataset.Dream)
//	panels := board.Panels()
//
// Charts, tables and summaries are built by the engine package and drawn or
// exported by render. The penguins command wraps all of it in a CLI and REPL.
package penguins
