// Package apprun is a graph-based application runtime for Go.
//
// # Overview
//
// An application is described as a set of typed nodes:
//
//  1. Resources: stateful singletons with init/dispose lifecycles
//  2. Tasks: invocable functions run through a middleware chain
//  3. Events: typed message definitions dispatched through the EventManager
//  4. Hooks: event listeners
//  5. Middleware: wrappers around task execution or resource init
//  6. Tags: cross-cutting markers over the other node kinds
//
// Run resolves the dependency graph rooted at a resource, initializes every
// resource in topological order, and returns a Runtime that can invoke
// tasks, emit events, and read resource values until it is disposed.
//
//	root := apprun.NewResource[*Config]("app.config").
//		Init(func(ctx *apprun.InitCtx, _ any, _ apprun.ResolvedDeps) (*Config, error) {
//			return &Config{Port: 8080}, nil
//		}).
//		Build()
//
//	rt, err := apprun.Run(context.Background(), root)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer rt.Dispose(context.Background())
package apprun
