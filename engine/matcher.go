package engine

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/treegrep/treegrep/syntax"
)

// MatchIter lazily yields matches of a pattern against a parsed source in
// pre-order walk order. Iteration is finite and restartable: every
// FindMatches call walks from the tree root with fresh state.
type MatchIter struct {
	cfg       Config
	pattern   *Pattern
	parsed    *syntax.ParseResult
	stack     []*sitter.Node
	anyKind   bool // pattern root is itself a metavariable
	emitted   int
	capped    bool
	truncated bool
}

// FindMatches starts a lazy match walk. The pattern and parsed source are
// read-only throughout; a compiled Pattern may drive any number of
// concurrent iterators over different sources.
func FindMatches(cfg Config, pattern *Pattern, parsed *syntax.ParseResult) *MatchIter {
	it := &MatchIter{
		cfg:     cfg,
		pattern: pattern,
		parsed:  parsed,
		stack:   []*sitter.Node{parsed.RootNode()},
	}
	ctx := &matchContext{pattern: pattern, source: parsed.Source()}
	it.anyKind = findMetavarInPattern(pattern.Root(), ctx) != nil
	return it
}

// FindAll collects every match eagerly. The second result reports whether
// the walk stopped at the configured match ceiling.
func FindAll(cfg Config, pattern *Pattern, parsed *syntax.ParseResult) ([]Match, bool) {
	it := FindMatches(cfg, pattern, parsed)
	var matches []Match
	for {
		m, ok := it.Next()
		if !ok {
			break
		}
		matches = append(matches, *m)
	}
	return matches, it.Truncated()
}

// FindFirst returns the earliest match in walk order, if any.
func FindFirst(pattern *Pattern, parsed *syntax.ParseResult) (*Match, bool) {
	return FindMatches(DefaultConfig(), pattern, parsed).Next()
}

// Truncated reports whether the walk stopped at the match ceiling, meaning
// the emitted sequence is not exhaustive.
func (it *MatchIter) Truncated() bool { return it.truncated }

// Next yields the next match, or false when the walk is exhausted.
// A matched node's descendants are skipped so one occurrence never yields
// nested duplicates; siblings and ancestors stay eligible. Once the match
// ceiling is reached the walk continues only far enough to learn whether a
// further match exists, so Truncated stays false when the source holds
// exactly the ceiling's worth of matches.
func (it *MatchIter) Next() (*Match, bool) {
	for len(it.stack) > 0 {
		node := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]

		if it.anyKind || node.Type() == it.pattern.Root().Type() {
			if caps, ok := it.attempt(node); ok {
				if it.capped {
					it.truncated = true
					it.stack = nil
					return nil, false
				}
				m := it.buildMatch(node, caps)
				it.emitted++
				if it.cfg.MaxMatchesPerRule > 0 && it.emitted >= it.cfg.MaxMatchesPerRule {
					it.capped = true
				}
				return m, true
			}
		}

		// Push children in reverse so the walk stays left-to-right.
		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			it.stack = append(it.stack, node.Child(i))
		}
	}
	return nil, false
}

// attempt tries the pattern against one candidate with fresh capture state
// and a fresh ellipsis budget; no state leaks between candidates.
func (it *MatchIter) attempt(candidate *sitter.Node) (*captures, bool) {
	ctx := &matchContext{
		pattern: it.pattern,
		source:  it.parsed.Source(),
		budget:  it.cfg.MaxDeepSearchNodes,
	}
	caps := newCaptures(it.parsed.Source())
	if !nodesMatch(candidate, it.pattern.Root(), ctx, caps) {
		return nil, false
	}
	return caps, true
}

func (it *MatchIter) truncate(text string) string {
	if it.cfg.MaxCaptureTextBytes > 0 && len(text) > it.cfg.MaxCaptureTextBytes {
		return text[:it.cfg.MaxCaptureTextBytes]
	}
	return text
}

func (it *MatchIter) buildMatch(node *sitter.Node, caps *captures) *Match {
	source := it.parsed.Source()

	m := &Match{
		RuleID:   it.pattern.ID,
		Span:     syntax.DisplaySpan(node),
		Captures: make(map[string]CaptureValue, len(caps.m)),
	}
	if it.cfg.IncludeText {
		m.Text = it.truncate(nodeText(source, node))
	}

	for name, b := range caps.m {
		m.Captures[name] = it.materialize(source, b)
	}
	return m
}

func (it *MatchIter) materialize(source string, b binding) CaptureValue {
	if b.kind == MetaVarSingle {
		cn := CapturedNode{Span: syntax.DisplaySpan(b.node), Kind: b.node.Type()}
		if it.cfg.IncludeText {
			cn.Text = it.truncate(nodeText(source, b.node))
		}
		return CaptureValue{Kind: CaptureNode, Span: cn.Span, Node: &cn}
	}

	var span syntax.Span
	if len(b.run) > 0 {
		first, last := b.run[0], b.run[len(b.run)-1]
		span = syntax.Span{
			StartByte: first.StartByte(),
			EndByte:   last.EndByte(),
			Start:     syntax.PointToOneBased(first.StartPoint()),
			End:       syntax.PointToOneBased(last.EndPoint()),
		}
	} else {
		anchor := syntax.PointToOneBased(b.anchorPoint)
		span = syntax.Span{StartByte: b.anchorByte, EndByte: b.anchorByte, Start: anchor, End: anchor}
	}

	// Unnamed tokens (separators) stay inside the span but are not
	// reported as captured nodes.
	var nodes []CapturedNode
	for _, n := range b.run {
		if !n.IsNamed() {
			continue
		}
		cn := CapturedNode{Span: syntax.DisplaySpan(n), Kind: n.Type()}
		if it.cfg.IncludeText {
			cn.Text = it.truncate(nodeText(source, n))
		}
		nodes = append(nodes, cn)
	}
	return CaptureValue{Kind: CaptureNodes, Span: span, Nodes: nodes}
}

// matchContext carries per-candidate state for one match attempt.
type matchContext struct {
	pattern *Pattern
	source  string
	budget  int // max node visits during ellipsis resolution; 0 = unbounded
	visits  int
}

// spend consumes one unit of ellipsis budget. Returning false abandons the
// current candidate (a non-match), never the whole walk.
func (ctx *matchContext) spend() bool {
	if ctx.budget <= 0 {
		return true
	}
	ctx.visits++
	return ctx.visits <= ctx.budget
}

// blockKinds are containers never treated as metavariable wrappers when
// peeling single-child pattern nodes.
func isBlockKind(kind string) bool {
	switch kind {
	case "block", "statement_block", "compound_statement":
		return true
	}
	return false
}

// findMetavarInPattern resolves a pattern node to the metavariable it
// stands for, if any: either the node's text is a placeholder identifier,
// or the node is a chain of single-child wrappers around one.
func findMetavarInPattern(patternNode *sitter.Node, ctx *matchContext) *MetaVariable {
	text := ctx.pattern.patternText(patternNode)
	if name, ok := metavarNameFromPlaceholder(text); ok {
		return ctx.pattern.metavarByName(name)
	}

	if patternNode.Type() == "ERROR" || isBlockKind(patternNode.Type()) {
		return nil
	}

	if only := singleNamedChild(patternNode); only != nil {
		return findMetavarInPattern(only, ctx)
	}
	return nil
}

// nodesMatch checks one source node against one pattern node, updating
// captures on success.
func nodesMatch(sourceNode, patternNode *sitter.Node, ctx *matchContext, caps *captures) bool {
	if mv := findMetavarInPattern(patternNode, ctx); mv != nil {
		if mv.Kind == MetaVarSingle {
			return caps.bindSingle(mv.Name, sourceNode)
		}
		// An ellipsis standing alone as the whole pattern node binds
		// the single candidate as a one-element run.
		return caps.bindRun(mv.Name, []*sitter.Node{sourceNode}, sourceNode.StartByte(), sourceNode.StartPoint())
	}

	if sourceNode.Type() != patternNode.Type() {
		return false
	}

	if patternNode.NamedChildCount() == 0 {
		return nodeText(ctx.source, sourceNode) == ctx.pattern.patternText(patternNode)
	}

	return matchChildren(sourceNode, patternNode, ctx, caps)
}

func collectChildren(node *sitter.Node) []*sitter.Node {
	count := int(node.ChildCount())
	children := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		children = append(children, node.Child(i))
	}
	return children
}

// matchChildren matches child sequences. Ellipsis patterns run over the
// full token sequence so captured runs keep their original separators.
// Exact patterns match named children positionally and exhaustively, with
// unnamed tokens compared separately: operators stay significant while
// separator formatting (a trailing comma in a gofmt-style call) does not
// defeat a match.
func matchChildren(sourceNode, patternNode *sitter.Node, ctx *matchContext, caps *captures) bool {
	patternChildren := collectChildren(patternNode)

	hasEllipsis := false
	for _, pc := range patternChildren {
		if mv := findMetavarInPattern(pc, ctx); mv != nil && mv.Kind == MetaVarEllipsis {
			hasEllipsis = true
			break
		}
	}

	if hasEllipsis {
		sm := &sequenceMatcher{
			parent: sourceNode,
			src:    collectChildren(sourceNode),
			pat:    patternChildren,
			ctx:    ctx,
		}
		return sm.matches(0, 0, caps)
	}

	sourceNamed := collectNamedChildren(sourceNode)
	patternNamed := collectNamedChildren(patternNode)
	if len(sourceNamed) != len(patternNamed) {
		return false
	}
	for i := range patternNamed {
		if !nodesMatch(sourceNamed[i], patternNamed[i], ctx, caps) {
			return false
		}
	}
	return tokensCompatible(sourceNode, patternNode)
}

func collectNamedChildren(node *sitter.Node) []*sitter.Node {
	count := int(node.NamedChildCount())
	children := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		children = append(children, node.NamedChild(i))
	}
	return children
}

// Separator tokens carry no meaning of their own and may legitimately
// differ between a pattern and formatted source.
func isSeparatorToken(kind string) bool {
	switch kind {
	case ",", ";":
		return true
	}
	return false
}

// tokensCompatible compares the unnamed tokens of two nodes, separators
// excluded. Operators and keywords are unnamed in most grammars, so named
// children alone cannot tell `a == b` from `a != b`.
func tokensCompatible(sourceNode, patternNode *sitter.Node) bool {
	src := significantTokens(sourceNode)
	pat := significantTokens(patternNode)
	if len(src) != len(pat) {
		return false
	}
	for i := range pat {
		if src[i].Type() != pat[i].Type() {
			return false
		}
	}
	return true
}

func significantTokens(node *sitter.Node) []*sitter.Node {
	var tokens []*sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.IsNamed() || isSeparatorToken(child.Type()) {
			continue
		}
		tokens = append(tokens, child)
	}
	return tokens
}

// sequenceMatcher resolves sibling sequences containing ellipsis
// metavariables by backtracking. Split points are tried shortest-first, so
// an ellipsis never steals nodes a concrete pattern segment could match
// (leftmost-shortest policy); the first complete assignment wins, keeping
// results deterministic.
type sequenceMatcher struct {
	parent *sitter.Node
	src    []*sitter.Node
	pat    []*sitter.Node
	ctx    *matchContext
}

// anchor computes where an empty ellipsis capture sits: the next source
// child, the end of the last child, or the parent itself.
func (sm *sequenceMatcher) anchor(srcIdx int) (uint32, sitter.Point) {
	if srcIdx < len(sm.src) {
		return sm.src[srcIdx].StartByte(), sm.src[srcIdx].StartPoint()
	}
	if len(sm.src) > 0 {
		last := sm.src[len(sm.src)-1]
		return last.EndByte(), last.EndPoint()
	}
	return sm.parent.StartByte(), sm.parent.StartPoint()
}

func (sm *sequenceMatcher) matches(srcIdx, patIdx int, caps *captures) bool {
	if !sm.ctx.spend() {
		return false
	}

	if patIdx == len(sm.pat) {
		return srcIdx == len(sm.src)
	}

	patternChild := sm.pat[patIdx]
	if mv := findMetavarInPattern(patternChild, sm.ctx); mv != nil && mv.Kind == MetaVarEllipsis {
		return sm.matchEllipsis(srcIdx, patIdx, mv, caps)
	}
	return sm.matchSingle(srcIdx, patIdx, patternChild, caps)
}

func (sm *sequenceMatcher) matchEllipsis(srcIdx, patIdx int, mv *MetaVariable, caps *captures) bool {
	anchorByte, anchorPoint := sm.anchor(srcIdx)
	for k := srcIdx; k <= len(sm.src); k++ {
		if !sm.ctx.spend() {
			return false
		}
		trial := caps.clone()
		if !trial.bindRun(mv.Name, sm.src[srcIdx:k], anchorByte, anchorPoint) {
			continue
		}
		if sm.matches(k, patIdx+1, trial) {
			caps.m = trial.m
			return true
		}
	}
	return false
}

func (sm *sequenceMatcher) matchSingle(srcIdx, patIdx int, patternChild *sitter.Node, caps *captures) bool {
	if srcIdx >= len(sm.src) {
		return false
	}
	trial := caps.clone()
	if !nodesMatch(sm.src[srcIdx], patternChild, sm.ctx, trial) {
		return false
	}
	if sm.matches(srcIdx+1, patIdx+1, trial) {
		caps.m = trial.m
		return true
	}
	return false
}
