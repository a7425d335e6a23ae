package parser

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_swift "github.com/alex-pinkus/tree-sitter-swift/bindings/go"
	tree_sitter_kotlin "github.com/tree-sitter-grammars/tree-sitter-kotlin/bindings/go"
	tree_sitter_bash "github.com/tree-sitter/tree-sitter-bash/bindings/go"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/owayo/astro-sight/internal/types"
)

// QueryTag names the three pattern sets every language registers.
const (
	TagSymbols = "symbols"
	TagCalls   = "calls"
	TagImports = "imports"
)

type langSpec struct {
	grammar func() *tree_sitter.Language
	queries map[string]string
}

// setupLanguage lazily builds the parser and compiles every registered
// query tag for l into e. Queries that fail to compile (including the
// tree-sitter Go binding's known typed-nil-error bug) are simply
// skipped for that tag rather than failing the whole language.
func setupLanguage(l types.Language, e *entry) error {
	spec, ok := specs[l]
	if !ok {
		return fmt.Errorf("no grammar registered for %q", l)
	}
	language := spec.grammar()
	p := tree_sitter.NewParser()
	if err := p.SetLanguage(language); err != nil {
		return err
	}
	e.parser = p
	e.lang = language
	for tag, q := range spec.queries {
		if q == "" {
			continue
		}
		query, _ := tree_sitter.NewQuery(language, q)
		if query != nil {
			e.queries[tag] = query
		}
	}
	return nil
}

var specs = map[types.Language]langSpec{
	types.LangGo: {
		grammar: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_go.Language()) },
		queries: map[string]string{
			TagSymbols: `
                (function_declaration name: (identifier) @function.name) @function
                (method_declaration
                    receiver: (parameter_list) @method.receiver
                    name: (field_identifier) @method.name) @method
                (type_declaration (type_spec name: (type_identifier) @type.name)) @type
                (const_declaration (const_spec name: (identifier) @const.name)) @const
                (var_declaration (var_spec name: (identifier) @variable.name)) @variable
            `,
			TagCalls: `(call_expression function: (_) @callee) @call`,
			TagImports: `(import_spec path: (interpreted_string_literal) @import.path) @import`,
		},
	},
	types.LangRust: {
		grammar: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_rust.Language()) },
		queries: map[string]string{
			TagSymbols: `
                (impl_item body: (declaration_list (function_item name: (identifier) @method.name))) @method
                (trait_item body: (declaration_list (function_item name: (identifier) @method.name))) @method
                (function_item name: (identifier) @function.name) @function
                (struct_item name: (type_identifier) @struct.name) @struct
                (enum_item name: (type_identifier) @enum.name) @enum
                (trait_item name: (type_identifier) @interface.name) @interface
                (type_item name: (type_identifier) @type.name) @type
                (mod_item name: (identifier) @module.name) @module
                (const_item name: (identifier) @const.name) @const
            `,
			TagCalls:   `(call_expression function: (_) @callee) @call`,
			TagImports: `(use_declaration) @import`,
		},
	},
	types.LangC: {
		grammar: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_c.Language()) },
		queries: map[string]string{
			TagSymbols: `
                (function_definition declarator: (function_declarator declarator: (identifier) @function.name)) @function
                (struct_specifier name: (type_identifier) @struct.name) @struct
                (enum_specifier name: (type_identifier) @enum.name) @enum
                (type_definition declarator: (type_identifier) @type.name) @type
            `,
			TagCalls:   `(call_expression function: (identifier) @callee) @call`,
			TagImports: `(preproc_include) @import`,
		},
	},
	types.LangCpp: {
		grammar: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_cpp.Language()) },
		queries: map[string]string{
			TagSymbols: `
                (function_definition declarator: (function_declarator declarator: (identifier) @function.name)) @function
                (function_definition declarator: (function_declarator declarator: (field_identifier) @method.name)) @method
                (class_specifier name: (type_identifier) @class.name) @class
                (struct_specifier name: (type_identifier) @struct.name) @struct
                (enum_specifier name: (type_identifier) @enum.name) @enum
                (namespace_definition name: (identifier) @module.name) @module
            `,
			TagCalls:   `(call_expression function: (_) @callee) @call`,
			TagImports: `(preproc_include) @import (using_declaration) @import`,
		},
	},
	types.LangPython: {
		grammar: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_python.Language()) },
		queries: map[string]string{
			TagSymbols: `
                (function_definition name: (identifier) @function.name) @function
                (class_definition name: (identifier) @class.name) @class
                (assignment left: (identifier) @variable.name) @variable
            `,
			TagCalls:   `(call function: (_) @callee) @call`,
			TagImports: `(import_statement) @import (import_from_statement) @import`,
		},
	},
	types.LangJavaScript: {
		grammar: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_javascript.Language()) },
		queries: map[string]string{
			TagSymbols: `
                (function_declaration name: (identifier) @function.name) @function
                (generator_function_declaration name: (identifier) @function.name) @function
                (variable_declarator
                    name: (identifier) @function.name
                    value: [(arrow_function) (function_expression) (generator_function)]) @function
                (variable_declarator
                    name: (identifier) @variable.name
                    value: (_) @variable.value) @variable
                (method_definition name: (property_identifier) @method.name) @method
                (class_declaration name: (identifier) @class.name) @class
            `,
			TagCalls:   `(call_expression function: (_) @callee) @call`,
			TagImports: `(import_statement source: (string) @import.source) @import (call_expression function: (identifier) @import.callee (#eq? @import.callee "require") arguments: (arguments (string) @import.source)) @import`,
		},
	},
	types.LangTypeScript: {
		grammar: func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
		},
		queries: map[string]string{
			TagSymbols: `
                (function_declaration name: (identifier) @function.name) @function
                (generator_function_declaration name: (identifier) @function.name) @function
                (method_definition name: (property_identifier) @method.name) @method
                (function_expression name: (identifier) @function.name) @function
                (class_declaration name: (type_identifier) @class.name) @class
                (interface_declaration name: (type_identifier) @interface.name) @interface
                (type_alias_declaration name: (type_identifier) @type.name) @type
                (enum_declaration name: (identifier) @enum.name) @enum
            `,
			TagCalls:   `(call_expression function: (_) @callee) @call`,
			TagImports: `(import_statement source: (string) @import.source) @import`,
		},
	},
	types.LangTSX: {
		grammar: func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
		},
		queries: map[string]string{
			TagSymbols: `
                (function_declaration name: (identifier) @function.name) @function
                (method_definition name: (property_identifier) @method.name) @method
                (class_declaration name: (type_identifier) @class.name) @class
                (interface_declaration name: (type_identifier) @interface.name) @interface
                (type_alias_declaration name: (type_identifier) @type.name) @type
            `,
			TagCalls:   `(call_expression function: (_) @callee) @call`,
			TagImports: `(import_statement source: (string) @import.source) @import`,
		},
	},
	types.LangJava: {
		grammar: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_java.Language()) },
		queries: map[string]string{
			TagSymbols: `
                (method_declaration name: (identifier) @method.name) @method
                (constructor_declaration name: (identifier) @method.name) @method
                (class_declaration name: (identifier) @class.name) @class
                (record_declaration name: (identifier) @class.name) @class
                (interface_declaration name: (identifier) @interface.name) @interface
                (enum_declaration name: (identifier) @enum.name) @enum
            `,
			TagCalls:   `(method_invocation name: (identifier) @callee) @call`,
			TagImports: `(import_declaration) @import`,
		},
	},
	types.LangKotlin: {
		grammar: func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_kotlin.Language())
		},
		queries: map[string]string{
			TagSymbols: `
                (function_declaration (simple_identifier) @function.name) @function
                (class_declaration (type_identifier) @class.name) @class
                (object_declaration (type_identifier) @class.name) @class
            `,
			TagCalls:   `(call_expression (simple_identifier) @callee) @call`,
			TagImports: `(import_header) @import`,
		},
	},
	types.LangSwift: {
		grammar: func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_swift.Language())
		},
		queries: map[string]string{
			TagSymbols: `
                (function_declaration name: (simple_identifier) @function.name) @function
                (class_declaration name: (type_identifier) @class.name) @class
                (protocol_declaration name: (type_identifier) @interface.name) @interface
            `,
			TagCalls:   `(call_expression (simple_identifier) @callee) @call`,
			TagImports: `(import_declaration) @import`,
		},
	},
	types.LangCSharp: {
		grammar: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_csharp.Language()) },
		queries: map[string]string{
			TagSymbols: `
                (method_declaration name: (identifier) @method.name) @method
                (constructor_declaration name: (identifier) @method.name) @method
                (class_declaration name: (identifier) @class.name) @class
                (interface_declaration name: (identifier) @interface.name) @interface
                (struct_declaration name: (identifier) @struct.name) @struct
                (enum_declaration name: (identifier) @enum.name) @enum
            `,
			TagCalls:   `(invocation_expression function: (_) @callee) @call`,
			TagImports: `(using_directive) @import`,
		},
	},
	types.LangPHP: {
		grammar: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP()) },
		queries: map[string]string{
			TagSymbols: `
                (class_declaration name: (name) @class.name) @class
                (interface_declaration name: (name) @interface.name) @interface
                (trait_declaration name: (name) @trait.name) @trait
                (enum_declaration name: (name) @enum.name) @enum
                (function_definition name: (name) @function.name) @function
                (method_declaration name: (name) @method.name) @method
            `,
			TagCalls:   `(function_call_expression function: (name) @callee) @call`,
			TagImports: `(namespace_use_declaration) @import`,
		},
	},
	types.LangBash: {
		grammar: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_bash.Language()) },
		queries: map[string]string{
			TagSymbols: `(function_definition name: (word) @function.name) @function`,
			TagCalls:   `(command name: (command_name (word) @callee)) @call`,
			// Bash has no import construct (spec 4.4).
		},
	},
}
