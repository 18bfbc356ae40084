package api

import (
	"time"

	"github.com/dekarrin/remora/scan"
	"github.com/dekarrin/remora/server/dao"
)

// note that these are *not* the DAO models; those are distinct and closer to
// the DB format they are in. Rather these are the models that are received from
// and sent to the client.

type InfoModel struct {
	Version struct {
		Server string `json:"server"`
		Remora string `json:"remora"`
	} `json:"version"`
}

// LoginResponse hands out a token. Scope says which grammars it allows
// acting on.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Scope  string `json:"scope"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserModel struct {
	URI            string `json:"uri"`
	ID             string `json:"id,omitempty"`
	Username       string `json:"username,omitempty"`
	Password       string `json:"password,omitempty"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role,omitempty"`
	Created        string `json:"created,omitempty"`
	Modified       string `json:"modified,omitempty"`
	LastLogoutTime string `json:"last_logout,omitempty"`
	LastLoginTime  string `json:"last_login,omitempty"`

	// Grammars is how many grammars the user owns and GrammarsURI lists
	// them. Both are ignored in requests.
	Grammars    int    `json:"grammars"`
	GrammarsURI string `json:"grammars_uri,omitempty"`
}

type UserUpdateRequest struct {
	ID       UpdateString `json:"id,omitempty"`
	Username UpdateString `json:"username,omitempty"`
	Password UpdateString `json:"password,omitempty"`
	Email    UpdateString `json:"email,omitempty"`
	Role     UpdateString `json:"role,omitempty"`
}

type UpdateString struct {
	Update bool   `json:"u,omitempty"`
	Value  string `json:"v,omitempty"`
}

// GrammarModel is a stored grammar. Source is omitted from listings.
type GrammarModel struct {
	URI      string   `json:"uri"`
	ID       string   `json:"id,omitempty"`
	Owner    string   `json:"owner,omitempty"`
	Name     string   `json:"name"`
	Source   string   `json:"source,omitempty"`
	Rules    []string `json:"rules,omitempty"`
	Created  string   `json:"created,omitempty"`
	Modified string   `json:"modified,omitempty"`
}

// GrammarCreateRequest is the JSON form of a new grammar. Grammar source may
// instead be posted as text/plain with the name in the "name" query
// parameter.
type GrammarCreateRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// GenerateRequest holds generation options. Unset fields keep their
// defaults.
type GenerateRequest struct {
	Package    *string `json:"package,omitempty"`
	Backtrack  *bool   `json:"backtrack,omitempty"`
	Entry      *string `json:"entry,omitempty"`
	Whitespace *string `json:"whitespace,omitempty"`
	FuncPrefix *string `json:"func_prefix,omitempty"`
	FuncSuffix *string `json:"func_suffix,omitempty"`
	RulePrefix *string `json:"rule_prefix,omitempty"`
	RuleSuffix *string `json:"rule_suffix,omitempty"`
	CodePrefix *string `json:"code_prefix,omitempty"`
	CodeSuffix *string `json:"code_suffix,omitempty"`
	Template   *string `json:"template,omitempty"`
}

type ParseRequest struct {
	Input      string `json:"input"`
	Rule       string `json:"rule,omitempty"`
	Backtrack  bool   `json:"backtrack,omitempty"`
	Debug      bool   `json:"debug,omitempty"`
	Whitespace string `json:"whitespace,omitempty"`
}

type ParseResponse struct {
	Accepted bool               `json:"accepted"`
	Value    interface{}        `json:"value,omitempty"`
	Error    *ParseFailureModel `json:"error,omitempty"`
	Trace    []string           `json:"trace,omitempty"`
}

// ParseFailureModel describes rejected input. Row and Col count from 1.
type ParseFailureModel struct {
	Row      int      `json:"row"`
	Col      int      `json:"col"`
	Message  string   `json:"message"`
	Expected string   `json:"expected,omitempty"`
	Reasons  []string `json:"reasons,omitempty"`
}

// TreeModel is the JSON form of a *scan.Tree.
type TreeModel struct {
	Rule     string        `json:"rule"`
	Children []interface{} `json:"children"`
}

func userModel(u dao.User) UserModel {
	m := UserModel{
		URI:            PathPrefix + "/users/" + u.ID.String(),
		ID:             u.ID.String(),
		Username:       u.Username,
		Role:           u.Role.String(),
		Created:        u.Created.Format(time.RFC3339),
		Modified:       u.Modified.Format(time.RFC3339),
		LastLogoutTime: u.LastLogoutTime.Format(time.RFC3339),
		LastLoginTime:  u.LastLoginTime.Format(time.RFC3339),
		Grammars:       u.Grammars,
		GrammarsURI:    PathPrefix + "/grammars?owner=" + u.ID.String(),
	}
	if u.Email != nil {
		m.Email = u.Email.Address
	}
	return m
}

func grammarModel(g dao.Grammar, withSource bool) GrammarModel {
	m := GrammarModel{
		URI:      PathPrefix + "/grammars/" + g.ID.String(),
		ID:       g.ID.String(),
		Owner:    g.Owner.String(),
		Name:     g.Name,
		Rules:    g.AST.Names(),
		Created:  g.Created.Format(time.RFC3339),
		Modified: g.Modified.Format(time.RFC3339),
	}
	if withSource {
		m.Source = g.Source
	}
	return m
}

// valueModel converts a parse result into something that marshals to plain
// JSON.
func valueModel(v interface{}) interface{} {
	switch tv := v.(type) {
	case *scan.Tree:
		m := TreeModel{Rule: tv.Rule, Children: make([]interface{}, len(tv.Children))}
		for i := range tv.Children {
			m.Children[i] = valueModel(tv.Children[i])
		}
		return m
	case []interface{}:
		vals := make([]interface{}, len(tv))
		for i := range tv {
			vals[i] = valueModel(tv[i])
		}
		return vals
	default:
		return tv
	}
}

func failureModel(f *scan.Failure, input string) *ParseFailureModel {
	return &ParseFailureModel{
		Row:      f.Row + 1,
		Col:      f.Col + 1,
		Message:  f.FullMessage(input),
		Expected: f.Expected(),
		Reasons:  f.Reasons(),
	}
}
