// Package pipeline runs a fixed sequence of stages over a columnar value.
//
// Each stage declares the columns it needs, makes and updates. New checks
// once, at construction, that every needed column comes from the source
// or from an earlier stage, so a misordered pipeline never runs. Run then
// executes the stages strictly in order, checking the context between
// stages.
//
//	p, err := pipeline.New(source,
//	    pipeline.Stage[*table.Table]{Name: "flow_velocity", Needs: []string{"Hdiff", "t", "D"}, Makes: []string{"Q", "Vavg"}, Run: flowVelocity},
//	    pipeline.Stage[*table.Table]{Name: "reynolds", Needs: []string{"Vavg", "D"}, Makes: []string{"Re"}, Run: reynolds},
//	)
//	p.Use(pipeline.WithLogging[*table.Table](log), pipeline.WithTracing[*table.Table]("pipeflow.stage"))
//	out, reports, err := p.Run(ctx, in)
//
// Levels reports the dependency depth of each stage, computed with Kahn's
// algorithm over the column producers.
package pipeline
