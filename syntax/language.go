package syntax

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/hcl"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language identifies a supported host grammar.
type Language int

const (
	LangGo Language = iota
	LangRust
	LangPython
	LangTypeScript
	LangHCL
)

func (l Language) String() string {
	switch l {
	case LangGo:
		return "go"
	case LangRust:
		return "rust"
	case LangPython:
		return "python"
	case LangTypeScript:
		return "typescript"
	case LangHCL:
		return "hcl"
	default:
		return "unknown"
	}
}

// All returns every supported language.
func All() []Language {
	return []Language{LangGo, LangRust, LangPython, LangTypeScript, LangHCL}
}

// FromString parses a language name like "go", "rust", or "ts".
func FromString(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "go", "golang":
		return LangGo, nil
	case "rust", "rs":
		return LangRust, nil
	case "python", "py":
		return LangPython, nil
	case "typescript", "ts", "tsx":
		return LangTypeScript, nil
	case "hcl", "terraform", "tf":
		return LangHCL, nil
	default:
		return 0, fmt.Errorf("unsupported language: %q", s)
	}
}

// FromExtension detects the language from a file extension (without dot).
func FromExtension(ext string) (Language, bool) {
	switch strings.ToLower(ext) {
	case "go":
		return LangGo, true
	case "rs":
		return LangRust, true
	case "py", "pyi":
		return LangPython, true
	case "ts", "tsx", "mts", "cts":
		return LangTypeScript, true
	case "hcl", "tf", "tfvars":
		return LangHCL, true
	default:
		return 0, false
	}
}

// FromPath detects the language from a file path by its extension.
func FromPath(path string) (Language, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return 0, false
	}
	return FromExtension(ext)
}

// sitterLanguage returns the tree-sitter grammar for this language, or nil
// for an out-of-range value.
func (l Language) sitterLanguage() *sitter.Language {
	switch l {
	case LangGo:
		return golang.GetLanguage()
	case LangRust:
		return rust.GetLanguage()
	case LangPython:
		return python.GetLanguage()
	case LangTypeScript:
		// TSX-capable grammar so .tsx sources parse too.
		return typescript.GetLanguage()
	case LangHCL:
		return hcl.GetLanguage()
	default:
		return nil
	}
}

const wrapperName = "__tgp_pattern_wrapper__"

// WrapPattern embeds a bare expression or statement fragment into a minimal
// syntactically complete unit so the grammar parser accepts it. Each grammar
// needs a different skeleton; this is the single place that knows them.
func (l Language) WrapPattern(pattern string) string {
	switch l {
	case LangGo:
		return "package __tgp__\n\nfunc " + wrapperName + "() {\n" + pattern + "\n}\n"
	case LangRust:
		trimmed := strings.TrimRight(pattern, " \t\r\n")
		if trimmed != "" && !strings.HasSuffix(trimmed, ";") && !strings.HasSuffix(trimmed, "}") {
			trimmed += ";"
		}
		return "fn " + wrapperName + "() { " + trimmed + " }"
	case LangPython:
		var b strings.Builder
		b.WriteString("def " + wrapperName + "():\n")
		if strings.TrimSpace(pattern) == "" {
			b.WriteString("    pass\n")
			return b.String()
		}
		for _, line := range strings.Split(pattern, "\n") {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
		return b.String()
	case LangTypeScript:
		return "function " + wrapperName + "() { " + pattern + " }"
	case LangHCL:
		// An attribute assignment makes a lone expression parseable.
		return wrapperName + " = " + pattern
	default:
		return pattern
	}
}

// UnwrapPatternRoot descends from the root of a wrapped pattern parse tree
// to the node holding the user's fragment (the wrapper's body).
// Returns nil when the expected wrapper shape is not found.
func (l Language) UnwrapPatternRoot(root *sitter.Node) *sitter.Node {
	switch l {
	case LangGo:
		fn := firstNamedOfKind(root, "function_declaration")
		if fn == nil {
			return nil
		}
		return fn.ChildByFieldName("body")
	case LangRust:
		fn := firstNamedOfKind(root, "function_item")
		if fn == nil {
			return nil
		}
		return fn.ChildByFieldName("body")
	case LangPython:
		fn := firstNamedOfKind(root, "function_definition")
		if fn == nil {
			return nil
		}
		return fn.ChildByFieldName("body")
	case LangTypeScript:
		fn := firstNamedOfKind(root, "function_declaration")
		if fn == nil {
			return nil
		}
		return fn.ChildByFieldName("body")
	case LangHCL:
		attr := firstNamedOfKind(root, "attribute")
		if attr == nil {
			return nil
		}
		// The attribute's last named child is the assigned expression.
		n := int(attr.NamedChildCount())
		if n == 0 {
			return nil
		}
		return attr.NamedChild(n - 1)
	default:
		return nil
	}
}

// IsTransparentKind reports whether a node of this kind is a single-child
// statement container that should not count as the pattern root itself
// (e.g. an expression statement wrapping a call).
func (l Language) IsTransparentKind(kind string) bool {
	return kind == "expression_statement"
}

// firstNamedOfKind finds the first named descendant of the given kind,
// searching breadth-first so the shallowest occurrence wins.
func firstNamedOfKind(node *sitter.Node, kind string) *sitter.Node {
	queue := []*sitter.Node{node}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.Type() == kind {
			return n
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			queue = append(queue, n.NamedChild(i))
		}
	}
	return nil
}
