package objstore

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Signature is the author/committer identity attached to a commit,
// encoded the way the teacher's object.Signature is: "Name <email> unix tz".
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

func (s *Signature) String() string {
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.When.Unix(), s.When.Format("-0700"))
}

func (s *Signature) decode(b []byte) {
	open := bytes.LastIndexByte(b, '<')
	close := bytes.LastIndexByte(b, '>')
	if open == -1 || close == -1 || close < open {
		return
	}
	s.Name = string(bytes.TrimSpace(b[:open]))
	s.Email = string(b[open+1 : close])
	if close+2 >= len(b) {
		return
	}
	s.decodeWhen(b[close+2:])
}

func (s *Signature) decodeWhen(b []byte) {
	space := bytes.IndexByte(b, ' ')
	if space == -1 {
		space = len(b)
	}
	ts, err := strconv.ParseInt(string(b[:space]), 10, 64)
	if err != nil {
		return
	}
	s.When = time.Unix(ts, 0).UTC()
	tzStart := space + 1
	if tzStart+5 > len(b) {
		return
	}
	tz := string(b[tzStart : tzStart+5])
	hrs, err1 := strconv.ParseInt(tz[:3], 10, 64)
	mins, err2 := strconv.ParseInt(tz[3:], 10, 64)
	if err1 != nil || err2 != nil {
		return
	}
	if hrs < 0 {
		mins = -mins
	}
	s.When = s.When.In(time.FixedZone("", int(hrs*3600+mins*60)))
}

// Commit is the tuple described in spec.md §3: CommitId, ChangeId,
// ordered parent CommitIds, a tree reference, author/committer,
// description, and predecessor CommitIds (the obsolescence log linking a
// commit to earlier versions of the same change).
type Commit struct {
	ID           Hash
	ChangeID     Hash
	Parents      []Hash
	Tree         Hash
	Author       Signature
	Committer    Signature
	Description  string
	Predecessors []Hash
}

// NumParents reports the number of parent commits.
func (c *Commit) NumParents() int { return len(c.Parents) }

// IsMerge reports whether c has two or more parents (merges() predicate).
func (c *Commit) IsMerge() bool { return len(c.Parents) >= 2 }

// IsRoot reports whether c has no parents (generation 0).
func (c *Commit) IsRoot() bool { return len(c.Parents) == 0 }

func (c *Commit) Encode(w io.Writer) error {
	if _, err := w.Write(commitMagic[:]); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "tree %s\nchange %s\n", c.Tree, c.ChangeID); err != nil {
		return err
	}
	for _, p := range c.Parents {
		if _, err := fmt.Fprintf(w, "parent %s\n", p); err != nil {
			return err
		}
	}
	for _, p := range c.Predecessors {
		if _, err := fmt.Fprintf(w, "predecessor %s\n", p); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "author %s\ncommitter %s\n\n%s", c.Author.String(), c.Committer.String(), c.Description); err != nil {
		return err
	}
	return nil
}

// DecodeCommit parses the canonical (already decompressed) body produced
// by Encode. id is the already-verified content hash of the object.
func DecodeCommit(id Hash, r io.Reader) (*Commit, error) {
	magic, err := readMagic(r)
	if err != nil {
		return nil, err
	}
	if magic != commitMagic {
		return nil, invalidMagicErr(magic)
	}
	c := &Commit{ID: id}
	br := bufio.NewReader(r)
	var msg strings.Builder
	headers := true
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, readErr
		}
		text := strings.TrimSuffix(line, "\n")
		if headers && len(text) == 0 {
			headers = false
			if readErr == io.EOF {
				break
			}
			continue
		}
		if headers {
			fields := strings.SplitN(text, " ", 2)
			if len(fields) == 2 {
				switch fields[0] {
				case "tree":
					c.Tree = NewHash(fields[1])
				case "change":
					c.ChangeID = NewHash(fields[1])
				case "parent":
					c.Parents = append(c.Parents, NewHash(fields[1]))
				case "predecessor":
					c.Predecessors = append(c.Predecessors, NewHash(fields[1]))
				case "author":
					c.Author.decode([]byte(fields[1]))
				case "committer":
					c.Committer.decode([]byte(fields[1]))
				}
			}
		} else {
			msg.WriteString(line)
		}
		if readErr == io.EOF {
			break
		}
	}
	c.Description = msg.String()
	return c, nil
}

// CanonicalID computes the content-addressed id c would be written
// under, independent of any Store. WriteCommit uses this to assign ids.
func (c *Commit) CanonicalID() (Hash, error) { return hashOf(c) }

// CommitIter is a closable iterator over commits, mirroring the
// teacher's object.CommitIter (modules/zeta/object/commit.go) used by
// every walk in this module.
type CommitIter interface {
	Next(ctx context.Context) (*Commit, error)
	ForEach(ctx context.Context, cb func(*Commit) error) error
	Close()
}

// ErrStop, returned from a ForEach callback, ends iteration without
// propagating an error (the teacher's plumbing.ErrStop convention).
var ErrStop = fmt.Errorf("chronocore: stop iteration")
