package naming

import (
	"strings"

	"github.com/shadercreator/backend/internal/models"
)

// TokenKind classifies a run of a file name.
type TokenKind int

const (
	TokenLiteral TokenKind = iota
	TokenRole
	TokenVersion
	TokenUDIM
)

func (k TokenKind) String() string {
	switch k {
	case TokenRole:
		return "role"
	case TokenVersion:
		return "version"
	case TokenUDIM:
		return "udim"
	default:
		return "literal"
	}
}

// Token is one lexical unit of a file name.
type Token struct {
	Kind    TokenKind          `json:"kind"`
	Text    string             `json:"text"`
	Role    models.TextureRole `json:"role,omitempty"`
	Version int                `json:"version,omitempty"`
}

// roleKeyword is a lower-case keyword and its role. Longest first so that
// "ssscolor" wins over "sss".
type roleKeyword struct {
	word string
	role models.TextureRole
}

var roleKeywords = []roleKeyword{
	{"displacement", models.RoleDisplacement},
	{"transmission", models.RoleTransmission},
	{"roughness", models.RoleRoughness},
	{"ssscolor", models.RoleSSSColor},
	{"specular", models.RoleSpecular},
	{"diffuse", models.RoleDiffuse},
	{"bump", models.RoleBump},
	{"sss", models.RoleSSS},
}

var udimLiterals = []string{"u0_v0", "u1_v1"}

// Tokenize splits name into tokens in one left-to-right pass. At each
// position the scanner tries a UDIM token, then a version token, then a role
// keyword; anything else extends the current literal.
func Tokenize(name string) []Token {
	var (
		tokens  []Token
		literal strings.Builder
	)
	flush := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, Token{Kind: TokenLiteral, Text: literal.String()})
			literal.Reset()
		}
	}

	lower := asciiLower(name)
	for i := 0; i < len(name); {
		if n := matchUDIM(name, i); n > 0 {
			flush()
			tokens = append(tokens, Token{Kind: TokenUDIM, Text: name[i : i+n]})
			i += n
			continue
		}
		if v, ok := matchVersion(name, i); ok {
			flush()
			tokens = append(tokens, Token{Kind: TokenVersion, Text: name[i : i+3], Version: v})
			i += 3
			continue
		}
		if kw, ok := matchKeyword(lower, i); ok {
			flush()
			tokens = append(tokens, Token{Kind: TokenRole, Text: name[i : i+len(kw.word)], Role: kw.role})
			i += len(kw.word)
			continue
		}
		literal.WriteByte(name[i])
		i++
	}
	flush()
	return tokens
}

// ResolveRole returns the role of the first keyword in fileName.
func ResolveRole(fileName string) (models.TextureRole, bool) {
	for _, tok := range Tokenize(baseName(fileName)) {
		if tok.Kind == TokenRole {
			return tok.Role, true
		}
	}
	return 0, false
}

// ResolveVersion returns the first version token of fileName.
func ResolveVersion(fileName string) (int, bool) {
	for _, tok := range Tokenize(baseName(fileName)) {
		if tok.Kind == TokenVersion {
			return tok.Version, true
		}
	}
	return 0, false
}

// matchUDIM accepts a tile token only when it fills a whole dot-delimited
// segment that more of the name follows, as udim.Normalize does.
func matchUDIM(s string, i int) int {
	if i > 0 && s[i-1] != '.' {
		return 0
	}
	n := 0
	for _, lit := range udimLiterals {
		if strings.HasPrefix(s[i:], lit) {
			n = len(lit)
			break
		}
	}
	if n == 0 {
		for i+n < len(s) && isDigit(s[i+n]) {
			n++
		}
		if n != 4 {
			return 0
		}
	}
	if i+n >= len(s) || s[i+n] != '.' {
		return 0
	}
	return n
}

func matchVersion(s string, i int) (int, bool) {
	if s[i] != 'v' && s[i] != 'V' {
		return 0, false
	}
	if i+3 > len(s) || !isDigit(s[i+1]) || !isDigit(s[i+2]) {
		return 0, false
	}
	if i+3 < len(s) && isDigit(s[i+3]) {
		return 0, false
	}
	return int(s[i+1]-'0')*10 + int(s[i+2]-'0'), true
}

func matchKeyword(lower string, i int) (roleKeyword, bool) {
	for _, kw := range roleKeywords {
		if strings.HasPrefix(lower[i:], kw.word) {
			return kw, true
		}
	}
	return roleKeyword{}, false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// asciiLower lowers ASCII letters only so byte offsets stay aligned with name.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}
