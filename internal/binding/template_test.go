package binding

import (
	"errors"
	"strings"
	"testing"

	"github.com/livefir/livepatch/internal/dom"
)

func buildFirst(t *testing.T, env *Env) (*Registry, *Collection) {
	t.Helper()
	reg, err := env.Build(env.Tree.ElementByID("root"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(reg.Collections()) == 0 {
		t.Fatal("no collection registered")
	}
	return reg, reg.Collections()[0]
}

func TestResolverTemplateOrder(t *testing.T) {
	env, _ := newEnv(t, `
<template id="special"><li class="special"></li></template>
<template id="row"><li class="row"></li></template>
<div id="root">
  <ul id="a" s-list="a" s-template="row"><template><li class="child"></li></template></ul>
  <ul id="b" s-list="b"><template><li class="child"></li></template></ul>
</div>`, true)
	reg, err := env.Build(env.Tree.ElementByID("root"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	withID, childOnly := reg.Collections()[0].Resolver, reg.Collections()[1].Resolver

	tests := []struct {
		name     string
		resolver *Resolver
		item     map[string]any
		class    string
	}{
		{"key hint wins", withID, map[string]any{"key": "special#1"}, "special"},
		{"container template id", withID, map[string]any{"key": "1"}, "row"},
		{"unknown hint falls through", withID, map[string]any{"key": "nope#1"}, "row"},
		{"direct child template", childOnly, map[string]any{"key": 2.0}, "child"},
		{"hint on child-only container", childOnly, map[string]any{"key": "special#9"}, "special"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := tt.resolver.Resolve(tt.item)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if class, _ := dom.Attr(node, "class"); class != tt.class {
				t.Errorf("expected %s template, got %q", tt.class, class)
			}
			if node.Parent != nil {
				t.Error("resolved node must be detached")
			}
		})
	}
}

func TestResolverMissingTemplate(t *testing.T) {
	markup := `<div id="root"><ul s-list="items"></ul></div>`

	env, _ := newEnv(t, markup, true)
	_, col := buildFirst(t, env)
	if _, err := col.Resolver.Resolve(map[string]any{"key": "a"}); !errors.Is(err, ErrNoTemplate) {
		t.Fatalf("expected ErrNoTemplate, got %v", err)
	}

	env, _ = newEnv(t, markup, false)
	_, col = buildFirst(t, env)
	node, err := col.Resolver.Resolve(map[string]any{"key": "a"})
	if err != nil {
		t.Fatalf("non-debug mode must not fail, got %v", err)
	}
	if node.Data != "div" {
		t.Errorf("expected placeholder div, got %s", node.Data)
	}
}

func TestResolverTemplateShape(t *testing.T) {
	for _, content := range []string{"", "text only", "<li></li><li></li>"} {
		env, _ := newEnv(t, `<div id="root"><ul s-list="items"><template>`+content+`</template></ul></div>`, true)
		_, col := buildFirst(t, env)
		if _, err := col.Resolver.Resolve(map[string]any{"key": "a"}); !errors.Is(err, ErrTemplateShape) {
			t.Errorf("content %q: expected ErrTemplateShape, got %v", content, err)
		}
	}

	env, _ := newEnv(t, `<div id="root"><ul s-list="items"><template>
		<li>one</li>
	</template></ul></div>`, true)
	_, col := buildFirst(t, env)
	if _, err := col.Resolver.Resolve(map[string]any{"key": "a"}); err != nil {
		t.Errorf("whitespace around a single element is fine, got %v", err)
	}
}

func TestTemplateValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"clean", `<li><span s-bind=".name"></span></li>`, false},
		{"script", `<li><script>alert(1)</script></li>`, true},
		{"handler attribute", `<li><button onclick="x()"></button></li>`, true},
		{"handler attribute uppercase", `<li ONMOUSEOVER="x()"></li>`, true},
		{"nested collection", `<li><ul s-list="children"></ul></li>`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, _ := newEnv(t, `<div id="root"><ul s-list="items"><template id="tpl">`+tt.content+`</template></ul></div>`, true)
			_, col := buildFirst(t, env)

			_, err := col.Resolver.Resolve(map[string]any{"key": "a"})
			if tt.wantErr != errors.Is(err, ErrUnsafeTemplate) {
				t.Fatalf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			tpl := env.Tree.ElementByID("tpl")
			if env.Templates.IsValidated(tpl) == tt.wantErr {
				t.Errorf("validated status should be %v", !tt.wantErr)
			}
		})
	}
}

func TestTemplateValidationIsCached(t *testing.T) {
	env, _ := newEnv(t, `<div id="root"><ul s-list="items"><template id="tpl"><li></li></template></ul></div>`, true)
	_, col := buildFirst(t, env)
	tpl := env.Tree.ElementByID("tpl")

	if _, err := col.Resolver.Resolve(map[string]any{"key": "a"}); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !env.Templates.IsValidated(tpl) {
		t.Fatal("template should be cached as validated")
	}

	// Trusted until forgotten, even if the markup changes underneath.
	dom.SetAttr(dom.FirstElementChild(tpl), "onclick", "x()")
	if _, err := col.Resolver.Resolve(map[string]any{"key": "b"}); err != nil {
		t.Fatalf("cached template should not be revalidated, got %v", err)
	}

	env.Templates.Forget(env.Tree.ElementByID("root"))
	if env.Templates.IsValidated(tpl) {
		t.Fatal("forget should clear validated status")
	}
	if _, err := col.Resolver.Resolve(map[string]any{"key": "c"}); !errors.Is(err, ErrUnsafeTemplate) {
		t.Fatalf("expected revalidation failure, got %v", err)
	}
}

func TestResolverExtractsLocalsAndRegistersGlobals(t *testing.T) {
	env, _ := newEnv(t, `
<div id="root">
  <ul s-list="items"><template>
    <li s-bind=".title:data-title"><span s-bind=".title"></span><em s-bind="currency"></em><input s-bind=".done:checked"></li>
  </template></ul>
</div>`, true)
	reg, col := buildFirst(t, env)
	if len(reg.Paths()) != 0 {
		t.Fatalf("template globals must not be registered before use, got %v", reg.Paths())
	}

	node, err := col.Resolver.Resolve(map[string]any{"key": "a"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	locals, ok := env.Locals.Get(node)
	if !ok {
		t.Fatal("locals should be cached on the new node")
	}
	title := locals["title"]
	if len(title) != 2 || title[0].Node != node || title[0].Prop != "data-title" || title[1].Node.Data != "span" {
		t.Errorf("unexpected title locals: %+v", title)
	}
	if done := locals["done"]; len(done) != 1 || done[0].Prop != "checked" {
		t.Errorf("unexpected done locals: %+v", done)
	}

	if got := strings.Join(reg.Paths(), ","); got != "currency" {
		t.Errorf("global directives in the clone should be registered, got %s", got)
	}
	if e := reg.Entries("currency"); len(e) != 1 || !dom.Contains(node, e[0].Node) {
		t.Error("registered global should point into the clone")
	}
}

func TestResolverRejectsLocalHandlerBinding(t *testing.T) {
	env, _ := newEnv(t, `<div id="root"><ul s-list="items"><template><li s-bind=".x:onclick"></li></template></ul></div>`, true)
	_, col := buildFirst(t, env)

	if _, err := col.Resolver.Resolve(map[string]any{"key": "a"}); !errors.Is(err, ErrHandlerBinding) {
		t.Fatalf("expected ErrHandlerBinding, got %v", err)
	}
}
