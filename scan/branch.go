package scan

import "errors"

// Branch records the attempts made at one decision point: an alternation or
// one iteration of a repetition. Failures of rejected attempts become the
// siblings of the failure reported if no attempt succeeds.
type Branch struct {
	p        *Parser
	rejected []*Failure
	closed   bool
}

// BeginBranch opens a decision point. It must be ended with exactly one of
// Accept, Fail or Close.
func (p *Parser) BeginBranch() *Branch {
	b := &Branch{p: p}
	p.branches = append(p.branches, b)
	return b
}

// Reject records the failure of one attempt. Errors that are not structural
// failures are ignored.
func (b *Branch) Reject(err error) {
	var f *Failure
	if errors.As(err, &f) {
		b.rejected = append(b.rejected, f)
	}
}

// Accept closes the branch after an attempt succeeded.
func (b *Branch) Accept() {
	b.Close()
}

// Close closes the branch without reporting anything.
func (b *Branch) Close() {
	if b.closed {
		return
	}
	b.closed = true

	bs := b.p.branches
	for i := len(bs) - 1; i >= 0; i-- {
		if bs[i] == b {
			b.p.branches = append(bs[:i], bs[i+1:]...)
			break
		}
	}
}

// Fail closes the branch and returns the failure to propagate when every
// attempt failed: the rejected failure that got farthest, with all the other
// rejected failures as siblings.
func (b *Branch) Fail() error {
	b.Close()

	if len(b.rejected) == 0 {
		return b.p.Fail("no alternative matched")
	}

	primary := b.rejected[0]
	for _, r := range b.rejected[1:] {
		if r.Pos > primary.Pos {
			primary = r
		}
	}

	f := *primary
	f.Siblings = append([]*Failure(nil), primary.Siblings...)
	for _, r := range b.rejected {
		if r != primary {
			f.Siblings = append(f.Siblings, r)
		}
	}
	return &f
}

// Choice tries each alternative in order, rewinding between attempts, and
// stops at the first that succeeds. If all fail, the failure from Branch.Fail
// is returned. Errors other than structural failures stop the choice at once.
func (p *Parser) Choice(alts ...func() error) error {
	br := p.BeginBranch()
	for _, alt := range alts {
		m := p.Mark()
		err := alt()
		if err == nil {
			br.Accept()
			return nil
		}
		if !IsFailure(err) {
			br.Close()
			return err
		}
		p.Reset(m)
		br.Reject(err)
	}
	return br.Fail()
}

// Repeat runs body until it fails, rewinding the failed attempt. It fails if
// body succeeded fewer than min times and stops after max successes when max
// is positive. An unbounded repetition whose body succeeds without consuming
// input returns an error wrapping ErrZeroWidth.
func (p *Parser) Repeat(min, max int, body func() error) error {
	count := 0
	for max <= 0 || count < max {
		m := p.Mark()
		br := p.BeginBranch()

		err := body()
		if err == nil {
			br.Accept()
			count++
			if max != 1 {
				if err := p.Progressed(m); err != nil {
					return err
				}
			}
			continue
		}

		if !IsFailure(err) {
			br.Close()
			return err
		}
		p.Reset(m)
		br.Reject(err)
		if count < min {
			return br.Fail()
		}
		br.Close()
		return nil
	}
	return nil
}
