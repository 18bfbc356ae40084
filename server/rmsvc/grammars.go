package rmsvc

import (
	"context"
	"errors"

	"github.com/dekarrin/remora"
	"github.com/dekarrin/remora/internal/grammar"
	"github.com/dekarrin/remora/internal/rmerrors"
	"github.com/dekarrin/remora/scan"
	"github.com/dekarrin/remora/server/dao"
	"github.com/dekarrin/remora/server/serr"
	"github.com/google/uuid"
)

// ParseRequest holds how input is parsed with a stored grammar.
type ParseRequest struct {
	Input     string
	Rule      string
	Backtrack bool
	Debug     bool

	// Whitespace is the pattern skipped between tokens. Empty uses the
	// default of generated parsers.
	Whitespace string
}

// ParseOutcome is the result of parsing input with a stored grammar. When
// Accepted is false, Failure describes why the input was rejected.
type ParseOutcome struct {
	Accepted bool
	Value    interface{}
	Failure  *scan.Failure

	// Trace is the rule invocation trace when the request asked for debug.
	Trace []string
}

// CreateGrammar parses source and stores it as a grammar called name owned by
// the given user.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the source does not parse
// or is not a valid grammar, it will match serr.ErrGrammar. If name is blank,
// it will match serr.ErrBadArgument. If the error occured due to an
// unexpected problem with the DB, it will match serr.ErrDB.
func (svc Service) CreateGrammar(ctx context.Context, owner uuid.UUID, name, source string) (dao.Grammar, error) {
	if name == "" {
		return dao.Grammar{}, serr.New("name cannot be blank", serr.ErrBadArgument)
	}

	spec, err := remora.LoadGrammar(source)
	if err != nil {
		return dao.Grammar{}, serr.New("", err, serr.ErrGrammar)
	}

	g, err := svc.DB.Grammars().Create(ctx, dao.Grammar{
		Owner:  owner,
		Name:   name,
		Source: source,
		AST:    spec.Grammar,
	})
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.Grammar{}, serr.New("grammar could not be stored", err, serr.ErrBadArgument)
		}
		return dao.Grammar{}, serr.WrapDB("could not create grammar", err)
	}

	svc.logger().Debug("grammar created", "grammar", g.ID.String(), "rules", len(g.AST.Rules))
	return g, nil
}

// GetGrammar returns the grammar with the given ID.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no grammar with that ID
// exists, it will match serr.ErrNotFound. If the error occured due to an
// unexpected problem with the DB, it will match serr.ErrDB. Finally, if the ID
// is not valid, it will match serr.ErrBadArgument.
func (svc Service) GetGrammar(ctx context.Context, id string) (dao.Grammar, error) {
	uuidID, err := parseID(id, "ID")
	if err != nil {
		return dao.Grammar{}, err
	}

	g, err := svc.DB.Grammars().GetByID(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Grammar{}, serr.ErrNotFound
		}
		return dao.Grammar{}, serr.WrapDB("could not get grammar", err)
	}

	return g, nil
}

// GetAllGrammars returns every stored grammar.
func (svc Service) GetAllGrammars(ctx context.Context) ([]dao.Grammar, error) {
	all, err := svc.DB.Grammars().GetAll(ctx)
	if err != nil {
		return nil, serr.WrapDB("", err)
	}
	return all, nil
}

// GetGrammarsByOwner returns every grammar owned by the given user.
func (svc Service) GetGrammarsByOwner(ctx context.Context, owner uuid.UUID) ([]dao.Grammar, error) {
	all, err := svc.DB.Grammars().GetAllByOwner(ctx, owner)
	if err != nil {
		return nil, serr.WrapDB("", err)
	}
	return all, nil
}

// DeleteGrammar deletes the grammar with the given ID and returns it as it
// was just before deletion.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no grammar with that ID
// exists, it will match serr.ErrNotFound. If the error occured due to an
// unexpected problem with the DB, it will match serr.ErrDB. Finally, if the ID
// is not valid, it will match serr.ErrBadArgument.
func (svc Service) DeleteGrammar(ctx context.Context, id string) (dao.Grammar, error) {
	uuidID, err := parseID(id, "ID")
	if err != nil {
		return dao.Grammar{}, err
	}

	g, err := svc.DB.Grammars().Delete(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Grammar{}, serr.ErrNotFound
		}
		return dao.Grammar{}, serr.WrapDB("could not delete grammar", err)
	}

	return g, nil
}

// GenerateParser returns the Go source of a parser for the grammar with the
// given ID.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no grammar with that ID
// exists, it will match serr.ErrNotFound. If the options cannot be used with
// the grammar, it will match serr.ErrBadArgument. If the error occured due to
// an unexpected problem with the DB, it will match serr.ErrDB.
func (svc Service) GenerateParser(ctx context.Context, id string, opts remora.Options) ([]byte, error) {
	g, err := svc.GetGrammar(ctx, id)
	if err != nil {
		return nil, err
	}

	spec, err := svc.spec(g)
	if err != nil {
		return nil, err
	}

	src, err := spec.Generate(opts)
	if err != nil {
		return nil, serr.New(rmerrors.Human(err), err, serr.ErrBadArgument)
	}

	return src, nil
}

// ParseInput parses input with the grammar with the given ID. A rejection of
// the input is not an error; it is reported in the returned ParseOutcome.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no grammar with that ID
// exists, it will match serr.ErrNotFound. If the requested rule or whitespace
// cannot be used, it will match serr.ErrBadArgument. If the error occured due
// to an unexpected problem with the DB, it will match serr.ErrDB.
func (svc Service) ParseInput(ctx context.Context, id string, pr ParseRequest) (ParseOutcome, error) {
	g, err := svc.GetGrammar(ctx, id)
	if err != nil {
		return ParseOutcome{}, err
	}

	spec, err := svc.spec(g)
	if err != nil {
		return ParseOutcome{}, err
	}

	ws := pr.Whitespace
	if ws == "" {
		ws = remora.DefaultOptions().Whitespace
	}

	interp, err := spec.Interpreter(remora.ParseOptions{
		Backtrack:  pr.Backtrack,
		Entry:      pr.Rule,
		Whitespace: ws,
	})
	if err != nil {
		return ParseOutcome{}, serr.New(rmerrors.Human(err), err, serr.ErrBadArgument)
	}

	p, value, err := interp.Parse(pr.Input, "", pr.Debug)

	var outcome ParseOutcome
	if pr.Debug {
		outcome.Trace = p.TraceLines()
	}

	if err != nil {
		var f *scan.Failure
		if !errors.As(err, &f) {
			return ParseOutcome{}, serr.New("parsing failed", err, serr.ErrRejected)
		}
		outcome.Failure = f
		svc.logger().Debug("input rejected", "grammar", g.ID.String(), "row", f.Row, "col", f.Col)
		return outcome, nil
	}

	outcome.Accepted = true
	outcome.Value = value
	return outcome, nil
}

// spec builds a loaded grammar from the stored AST of g.
func (svc Service) spec(g dao.Grammar) (*remora.Spec, error) {
	first, err := grammar.ComputeFirst(g.AST)
	if err != nil {
		return nil, serr.New("stored grammar is not valid", err, serr.ErrGrammar)
	}
	return &remora.Spec{
		Grammar: g.AST,
		First:   first,
		Log:     svc.logger().With("grammar", g.ID.String()),
	}, nil
}
