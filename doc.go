// Package livepatch applies plain data objects to a live HTML tree.
//
// Elements opt in with attribute directives:
//
//	<h1 s-bind="title"></h1>                  text content from data.title
//	<input s-bind="user.name:value">          the value property
//	<ul s-list="todos">                       a keyed collection
//	  <template><li s-bind=".text"></li></template>
//	</ul>
//
// Scalar bindings are discovered once per root and cached. Collections are
// reconciled by key: nodes whose key survives an update keep their identity
// and are moved only when their position changes. Paths starting with a dot
// are local to a list item and resolve against the item instead of the root
// data.
//
//	doc, _ := livepatch.ParseDocumentString(page)
//	engine := livepatch.New(doc)
//	_ = engine.Patch(map[string]any{"title": "Hello"}, "#app")
//
// Streams coalesce bursts of updates so that only the latest value is
// applied when the engine's task queue runs:
//
//	update, _ := engine.Stream("#app")
//	go engine.Run(ctx)
//	update(next)
package livepatch
