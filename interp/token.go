package interp

// Token codes below 16 are reserved for literal-payload tokens; control
// bytes in source text are skipped by the tokenizer (spec.md §4.E rule 2),
// so these never collide with raw text.
const (
	CodeIntLit byte = 1 // u16 integer literal
	CodeNumLit byte = 2 // f32 literal
	CodeStrLit byte = 3 // u16 string-pool offset
	CodeIdn    byte = 4 // numeric identifier, u16 string-pool offset
	CodeIdnS   byte = 5 // string identifier ($ suffix), u16 string-pool offset
)

// Keyword and operator codes occupy two disjoint ranges starting at 128, in
// table order, as required by spec.md §3.5/§3.6.
const keywordCodeBase = 128

// keywords is the reserved-word table from spec.md §6.2, in the exact order
// given there. DATA and REM are keywords whose payload is the raw rest of
// the line (spec.md §3.5/§4.E rule 4) instead of the usual zero bytes.
var keywords = []string{
	"ATTR", "BYE", "CHAIN", "CLEAR", "CLOSE", "CLS", "CONTINUE", "DATA",
	"DEF", "DIM", "DUMP", "END", "ERROR", "FOR", "GOSUB", "GOTO", "IF",
	"INPUT", "LET", "LINPUT", "LIST", "LOAD", "MERGE", "NEW", "NEXT", "ON",
	"OPEN", "PRINT", "RANDOMIZE", "READ", "REM", "REPEAT", "RESTORE",
	"RETURN", "RUN", "SAVE", "SKIP", "STEP", "STOP", "SYS", "THEN", "TO",
	"TRACE",
}

var operatorCodeBase = keywordCodeBase + len(keywords)

// operatorNames is the operator table's name column, in the order given by
// spec.md §6.2, used to assign one token code per distinct textual spelling.
// "-" appears once here (one token code) even though §4.G.1 gives it two
// *semantic* entries (infix and prefix) in the operator table in operators.go.
var operatorNames = []string{
	"+", "-", "*", "/", "^", "=", "<>", "<", "<=", ">", ">=",
	"AND", "OR", "NOT",
	"ABS", "ACS", "ASC", "ASN", "AT", "ATN", "CHR$", "COL", "COS", "EOF",
	"ERR", "EXP", "INKEY$", "INT", "LEFT$", "LEN", "LOG", "MID$", "MOD",
	"RIGHT$", "RND", "ROW", "SGN", "SIN", "SQR", "STR$", "SUB$", "TAB",
	"TAN", "TIME", "VAL",
}

var (
	keywordCode   = map[string]byte{}
	codeKeyword   = map[byte]string{}
	operatorCode  = map[string]byte{}
	codeOperator  = map[byte]string{}
)

func init() {
	for i, name := range keywords {
		code := byte(keywordCodeBase + i)
		keywordCode[name] = code
		codeKeyword[code] = name
	}
	for i, name := range operatorNames {
		code := byte(operatorCodeBase + i)
		operatorCode[name] = code
		codeOperator[code] = name
	}
}

func isKeywordCode(c byte) bool {
	_, ok := codeKeyword[c]
	return ok
}

func isOperatorCode(c byte) bool {
	_, ok := codeOperator[c]
	return ok
}

// kw/op are small helpers used throughout dispatch/statements for
// readability at call sites (e.g. kw("FOR")).
func kw(name string) byte { return keywordCode[name] }
func op(name string) byte { return operatorCode[name] }
