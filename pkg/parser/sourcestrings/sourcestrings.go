// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package sourcestrings extracts translatable strings from Go,
// Python, and JavaScript source by walking the Tree-sitter AST for
// call expressions naming one of the recognized marker functions
// (T, _, gettext) with a single string-literal argument. The marker
// function's name becomes the occurrence's Hint.
package sourcestrings

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/kraklabs/lsync/pkg/parser"
)

// markerNames are the call-expression function names treated as
// translation markers.
var markerNames = map[string]bool{"T": true, "_": true, "gettext": true}

// Parser implements parser.Parser over a Tree-sitter grammar selected
// by Language.
type Parser struct {
	lang sitter.Language
	once sync.Once
	pool sync.Pool
}

// NewGo returns a Parser for Go source.
func NewGo() *Parser { return &Parser{lang: golang.GetLanguage()} }

// NewPython returns a Parser for Python source.
func NewPython() *Parser { return &Parser{lang: python.GetLanguage()} }

// NewJavaScript returns a Parser for JavaScript source.
func NewJavaScript() *Parser { return &Parser{lang: javascript.GetLanguage()} }

func (p *Parser) getParser() *sitter.Parser {
	p.once.Do(func() {
		p.pool.New = func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(p.lang)
			return sp
		}
	})
	return p.pool.Get().(*sitter.Parser)
}

func (p *Parser) putParser(sp *sitter.Parser) { p.pool.Put(sp) }

type match struct {
	callStart, callEnd int
	strStart, strEnd   int // byte range of the string literal argument, quotes included
	text               string
	fnName             string
}

// Parse walks buffer's AST for marker-function call expressions.
func (p *Parser) Parse(buffer []byte, lang string, callback parser.Callback) ([]byte, error) {
	sp := p.getParser()
	defer p.putParser(sp)

	tree, err := sp.ParseCtx(context.Background(), nil, buffer)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	var matches []match
	walk(tree.RootNode(), buffer, &matches)
	sort.Slice(matches, func(i, j int) bool { return matches[i].callStart < matches[j].callStart })

	if lang == "" {
		for _, m := range matches {
			_, err := callback(parser.Occurrence{Text: m.text, Hint: m.fnName})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	out := make([]byte, 0, len(buffer))
	pos := 0
	for _, m := range matches {
		translated, err := callback(parser.Occurrence{Text: m.text, Hint: m.fnName})
		if err != nil {
			return nil, err
		}
		out = append(out, buffer[pos:m.strStart]...)
		if translated != "" {
			out = append(out, quoteLike(buffer[m.strStart:m.strEnd], translated)...)
		} else {
			out = append(out, buffer[m.strStart:m.strEnd]...)
		}
		pos = m.strEnd
	}
	out = append(out, buffer[pos:]...)
	return out, nil
}

// walk recurses the AST collecting call nodes (call_expression in Go
// and JavaScript, call in Python) whose function is a recognized
// marker and whose sole argument is a string literal.
func walk(node *sitter.Node, src []byte, out *[]match) {
	if node == nil {
		return
	}
	if (node.Type() == "call_expression" || node.Type() == "call") && node.ChildCount() >= 2 {
		fnNode := node.Child(0)
		argsNode := node.ChildByFieldName("arguments")
		if fnNode != nil && argsNode != nil {
			fnName := string(src[fnNode.StartByte():fnNode.EndByte()])
			if markerNames[fnName] {
				if strNode := singleStringArg(argsNode); strNode != nil {
					raw := string(src[strNode.StartByte():strNode.EndByte()])
					*out = append(*out, match{
						callStart: int(node.StartByte()),
						callEnd:   int(node.EndByte()),
						strStart:  int(strNode.StartByte()),
						strEnd:    int(strNode.EndByte()),
						text:      unquoteLiteral(raw),
						fnName:    fnName,
					})
				}
			}
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walk(node.Child(i), src, out)
	}
}

// singleStringArg returns the lone string-literal child of an
// arguments node, or nil if the argument list doesn't consist of
// exactly one string literal.
func singleStringArg(argsNode *sitter.Node) *sitter.Node {
	var strNode *sitter.Node
	count := 0
	for i := 0; i < int(argsNode.ChildCount()); i++ {
		c := argsNode.Child(i)
		switch c.Type() {
		case "(", ")", ",":
			continue
		case "interpreted_string_literal", "string", "raw_string_literal", "template_string":
			strNode = c
			count++
		default:
			count++
		}
	}
	if count == 1 {
		return strNode
	}
	return nil
}

// unquoteLiteral strips the surrounding quote characters and resolves
// the common \n, \t, \", \\ escapes from a source-level string
// literal.
func unquoteLiteral(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	inner := raw[1 : len(raw)-1]
	replacer := strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\"`, `"`, `\\`, `\`)
	return replacer.Replace(inner)
}

// quoteLike re-quotes translated using the same quote character the
// original literal used.
func quoteLike(original []byte, translated string) []byte {
	quote := byte('"')
	if len(original) > 0 {
		quote = original[0]
	}
	escaped := strings.NewReplacer(`\`, `\\`, string(quote), `\`+string(quote)).Replace(translated)
	return append([]byte{quote}, append([]byte(escaped), quote)...)
}
