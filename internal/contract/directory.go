package contract

import (
	"context"

	"github.com/jmerrifield20/recordledger/internal/directory"
	"github.com/jmerrifield20/recordledger/internal/txn"
)

// DirectoryContract is the entry point of the user directory.
//
//	add              userId recordRef providerId
//	update           recordRef
//	delete           userId
//	deleteReference  recordRef
//	query            userId
type DirectoryContract struct {
	dir *directory.Directory
}

// NewDirectoryContract wraps d.
func NewDirectoryContract(d *directory.Directory) *DirectoryContract {
	return &DirectoryContract{dir: d}
}

func (c *DirectoryContract) Name() string { return "directory" }

func (c *DirectoryContract) Functions() []string {
	return []string{"add", "update", "delete", "deleteReference", "query"}
}

func (c *DirectoryContract) Invoke(ctx context.Context, tx *txn.Tx, function string, args []string) (*Response, error) {
	switch function {
	case "add":
		if err := expectArgs(function, args, 3); err != nil {
			return nil, err
		}
		if err := c.dir.Register(ctx, tx, args[0], args[1], args[2]); err != nil {
			return nil, annotate(function, err)
		}
		return success("Invoke Success", nil), nil

	case "update":
		if err := expectArgs(function, args, 1); err != nil {
			return nil, err
		}
		if err := c.dir.Touch(ctx, tx, args[0]); err != nil {
			return nil, annotate(function, err)
		}
		return success("Invoke Success", nil), nil

	case "delete":
		if err := expectArgs(function, args, 1); err != nil {
			return nil, err
		}
		if err := c.dir.DeleteEntry(ctx, args[0]); err != nil {
			return nil, annotate(function, err)
		}
		return success("Delete Success", nil), nil

	case "deleteReference":
		if err := expectArgs(function, args, 1); err != nil {
			return nil, err
		}
		if err := c.dir.Remove(ctx, args[0]); err != nil {
			return nil, annotate(function, err)
		}
		return success("Delete Success", nil), nil

	case "query":
		if err := expectArgs(function, args, 1); err != nil {
			return nil, err
		}
		entry, err := c.dir.Get(ctx, args[0])
		if err != nil {
			return nil, annotate(function, err)
		}
		return success("Query Success", entry), nil
	}
	return nil, unsupported(c, function)
}
