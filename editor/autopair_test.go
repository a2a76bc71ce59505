package editor

import "testing"

func TestDecidePairingOpeners(t *testing.T) {
	cases := []struct {
		name    string
		ch      rune
		after   rune
		closing rune
	}{
		{"brace", '{', ' ', '}'},
		{"bracket", '[', 0, ']'},
		{"paren", '(', 0, ')'},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			decision, closing := DecidePairing(c.ch, c.after, false, false)
			if decision != PairInsertClosing || closing != c.closing {
				t.Fatalf("got (%v, %q), want (PairInsertClosing, %q)", decision, closing, c.closing)
			}
		})
	}
}

func TestDecidePairingInStringOrComment(t *testing.T) {
	decision, _ := DecidePairing('{', 0, true, false)
	if decision != PairSkip {
		t.Fatalf("expected PairSkip inside a string/comment, got %v", decision)
	}
}

func TestDecidePairingOpenerBeforeClosingStillInserts(t *testing.T) {
	// typing `{` when `}` follows should still insert a closer, to support nesting.
	decision, closing := DecidePairing('{', '}', false, false)
	if decision != PairInsertClosing || closing != '}' {
		t.Fatalf("got (%v, %q), want (PairInsertClosing, '}')", decision, closing)
	}
}

func TestDecidePairingWithSelectionWraps(t *testing.T) {
	decision, closing := DecidePairing('{', 0, false, true)
	if decision != PairWrapSelection || closing != '}' {
		t.Fatalf("got (%v, %q), want (PairWrapSelection, '}')", decision, closing)
	}
}

func TestDecidePairingNonBracketCharSkips(t *testing.T) {
	decision, _ := DecidePairing('a', 0, false, false)
	if decision != PairSkip {
		t.Fatalf("expected PairSkip for a non-pairable char, got %v", decision)
	}
}

func TestDecidePairingOvertype(t *testing.T) {
	cases := []rune{'}', ']', ')'}
	for _, ch := range cases {
		decision, closing := DecidePairing(ch, ch, false, false)
		if decision != PairOvertype || closing != ch {
			t.Fatalf("ch=%q: got (%v, %q), want (PairOvertype, %q)", ch, decision, closing, ch)
		}
	}
}

func TestDecidePairingClosingCharNoOvertypeWhenDifferent(t *testing.T) {
	decision, _ := DecidePairing('}', ' ', false, false)
	if decision != PairSkip {
		t.Fatalf("expected PairSkip when the following char doesn't match, got %v", decision)
	}
}

func TestDecidePairingQuoteOvertype(t *testing.T) {
	decision, closing := DecidePairing('"', '"', false, false)
	if decision != PairOvertype || closing != '"' {
		t.Fatalf("got (%v, %q), want (PairOvertype, '\"')", decision, closing)
	}
}

func TestDecidePairingQuoteInsertsWhenNothingFollows(t *testing.T) {
	decision, closing := DecidePairing('"', 0, false, false)
	if decision != PairInsertClosing || closing != '"' {
		t.Fatalf("got (%v, %q), want (PairInsertClosing, '\"')", decision, closing)
	}
}

func TestDecideIndentAfterOpenBrace(t *testing.T) {
	config := IndentConfig{Width: 2}
	got := DecideIndent('{', ' ', "  ", config)
	want := IndentDecision{Kind: IndentSimple, Indent: "    "}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecideIndentBetweenBraces(t *testing.T) {
	config := IndentConfig{Width: 2}
	got := DecideIndent('{', '}', "  ", config)
	want := IndentDecision{Kind: IndentBetweenBraces, Indent: "    ", OuterIndent: "  "}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecideIndentBetweenBrackets(t *testing.T) {
	config := IndentConfig{Width: 2}
	got := DecideIndent('[', ']', "", config)
	want := IndentDecision{Kind: IndentBetweenBraces, Indent: "  ", OuterIndent: ""}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecideIndentPlainLineContinuesIndent(t *testing.T) {
	config := IndentConfig{Width: 2}
	got := DecideIndent('x', 'y', "  ", config)
	want := IndentDecision{Kind: IndentSimple, Indent: "  "}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecideIndentEmptyFile(t *testing.T) {
	config := IndentConfig{Width: 2}
	got := DecideIndent(0, 0, "", config)
	want := IndentDecision{Kind: IndentNone}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestIndentConfigStep(t *testing.T) {
	if got := (IndentConfig{Width: 2}).Step(); got != "  " {
		t.Fatalf("got %q, want two spaces", got)
	}
	if got := (IndentConfig{Width: 4, UseTabs: true}).Step(); got != "\t" {
		t.Fatalf("got %q, want a tab", got)
	}
}

func TestDecideIndentWidthFourBetweenBraces(t *testing.T) {
	config := IndentConfig{Width: 4}
	got := DecideIndent('{', '}', "", config)
	want := IndentDecision{Kind: IndentBetweenBraces, Indent: "    ", OuterIndent: ""}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecideIndentWithTabs(t *testing.T) {
	config := IndentConfig{Width: 4, UseTabs: true}
	got := DecideIndent('{', ' ', "", config)
	want := IndentDecision{Kind: IndentSimple, Indent: "\t"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecideIndentAfterOpenBracket(t *testing.T) {
	config := IndentConfig{Width: 2}
	got := DecideIndent('[', '1', "", config)
	want := IndentDecision{Kind: IndentSimple, Indent: "  "}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecideIndentAfterOpenParen(t *testing.T) {
	config := IndentConfig{Width: 2}
	got := DecideIndent('(', ')', "  ", config)
	want := IndentDecision{Kind: IndentBetweenBraces, Indent: "    ", OuterIndent: "  "}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
