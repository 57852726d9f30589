// Package opcua implements session.Session on top of the gopcua client.
package opcua

import (
	"context"
	"fmt"
	"time"

	gopcua "github.com/gopcua/opcua"
	"github.com/gopcua/opcua/id"
	"github.com/gopcua/opcua/ua"

	"github.com/uaforge/uaexport/internal/session"
)

// Options configures a connection.
type Options struct {
	// Username and Password select username/password authentication when
	// Username is non-empty; otherwise the session is anonymous.
	Username string
	Password string

	// Security selects the secure-channel policy and mode. Certificate and
	// PrivateKey are file paths, required for any policy other than None.
	Policy      SecurityPolicy
	Mode        SecurityMode
	Certificate string
	PrivateKey  string

	// CallTimeout bounds each individual remote call. Zero means no
	// per-call deadline beyond the caller's context.
	CallTimeout time.Duration
}

// Client is a session.Session backed by one gopcua connection.
type Client struct {
	c           *gopcua.Client
	endpoint    string
	callTimeout time.Duration
}

var _ session.Session = (*Client)(nil)

// Dial establishes a connection to the server and verifies it by fetching
// the namespace array once.
func Dial(ctx context.Context, endpoint string, opts Options) (*Client, error) {
	copts := []gopcua.Option{
		gopcua.SecurityPolicy(opts.Policy.URI()),
		gopcua.SecurityMode(opts.Mode.uaMode()),
	}
	if opts.Username != "" {
		copts = append(copts, gopcua.AuthUsername(opts.Username, opts.Password))
	} else {
		copts = append(copts, gopcua.AuthAnonymous())
	}
	if opts.Policy != PolicyNone {
		copts = append(copts,
			gopcua.CertificateFile(opts.Certificate),
			gopcua.PrivateKeyFile(opts.PrivateKey),
		)
	}
	if opts.CallTimeout > 0 {
		copts = append(copts, gopcua.RequestTimeout(opts.CallTimeout))
	}

	c, err := gopcua.NewClient(endpoint, copts...)
	if err != nil {
		return nil, &session.ConnectivityError{Op: "configure", Err: err}
	}
	if err := c.Connect(ctx); err != nil {
		return nil, &session.ConnectivityError{Op: "connect", Err: err}
	}

	cl := &Client{c: c, endpoint: endpoint, callTimeout: opts.CallTimeout}
	if _, err := cl.NamespaceArray(ctx); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	return cl, nil
}

// Endpoint returns the server URL this client is connected to.
func (cl *Client) Endpoint() string { return cl.endpoint }

func (cl *Client) Root() session.NodeID {
	return session.NumericID(0, id.RootFolder)
}

func (cl *Client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if cl.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, cl.callTimeout)
}

func (cl *Client) node(nid session.NodeID) (*gopcua.Node, error) {
	uid, err := ua.ParseNodeID(nid.Text)
	if err != nil {
		return nil, fmt.Errorf("parse node id %q: %w", nid.Text, err)
	}
	return cl.c.Node(uid), nil
}

func fromUA(uid *ua.NodeID) session.NodeID {
	return session.NodeID{Namespace: uid.Namespace(), Text: uid.String()}
}

// Children enumerates hierarchical references only (reference type id 33,
// HierarchicalReferences, with subtypes).
func (cl *Client) Children(ctx context.Context, nid session.NodeID) ([]session.NodeID, error) {
	n, err := cl.node(nid)
	if err != nil {
		return nil, &session.ConnectivityError{Op: "browse", Err: err}
	}
	ctx, cancel := cl.callCtx(ctx)
	defer cancel()

	children, err := n.Children(ctx, id.HierarchicalReferences, ua.NodeClassAll)
	if err != nil {
		return nil, &session.ConnectivityError{Op: "browse", Err: fmt.Errorf("node %s: %w", nid, err)}
	}

	out := make([]session.NodeID, 0, len(children))
	for _, c := range children {
		out = append(out, fromUA(c.ID))
	}
	return out, nil
}

func (cl *Client) NodeClass(ctx context.Context, nid session.NodeID) (session.NodeClass, error) {
	n, err := cl.node(nid)
	if err != nil {
		return session.ClassUnspecified, &session.ConnectivityError{Op: "read class", Err: err}
	}
	ctx, cancel := cl.callCtx(ctx)
	defer cancel()

	attrs, err := n.Attributes(ctx, ua.AttributeIDNodeClass)
	if err != nil {
		return session.ClassUnspecified, &session.ConnectivityError{Op: "read class", Err: fmt.Errorf("node %s: %w", nid, err)}
	}
	if len(attrs) == 0 || attrs[0].Status != ua.StatusOK || attrs[0].Value == nil {
		return session.ClassUnspecified, fmt.Errorf("node %s: node class attribute not readable", nid)
	}
	return session.NodeClass(attrs[0].Value.Int()), nil
}

func (cl *Client) Describe(ctx context.Context, nid session.NodeID, withValue bool) (session.NodeDetail, error) {
	n, err := cl.node(nid)
	if err != nil {
		return session.NodeDetail{}, &session.ConnectivityError{Op: "describe", Err: err}
	}
	ctx, cancel := cl.callCtx(ctx)
	defer cancel()

	attrs, err := n.Attributes(ctx, ua.AttributeIDNodeClass, ua.AttributeIDBrowseName, ua.AttributeIDDisplayName)
	if err != nil {
		return session.NodeDetail{}, &session.ConnectivityError{Op: "describe", Err: fmt.Errorf("node %s: %w", nid, err)}
	}
	if len(attrs) != 3 {
		return session.NodeDetail{}, fmt.Errorf("node %s: expected 3 attributes, got %d", nid, len(attrs))
	}

	d := session.NodeDetail{ID: nid}
	if attrs[0].Status == ua.StatusOK && attrs[0].Value != nil {
		d.Class = session.NodeClass(attrs[0].Value.Int())
	}
	if attrs[1].Status == ua.StatusOK && attrs[1].Value != nil {
		if qn, ok := attrs[1].Value.Value().(*ua.QualifiedName); ok && qn != nil {
			d.BrowseName = fmt.Sprintf("%d:%s", qn.NamespaceIndex, qn.Name)
		}
	}
	if attrs[2].Status == ua.StatusOK && attrs[2].Value != nil {
		if lt, ok := attrs[2].Value.Value().(*ua.LocalizedText); ok && lt != nil {
			d.DisplayName = lt.Text
		}
	}

	if withValue && d.Class == session.ClassVariable {
		// A value attribute with a bad status degrades to an empty value,
		// a transport failure aborts the export.
		v, err := n.Value(ctx)
		if err != nil {
			return session.NodeDetail{}, &session.ConnectivityError{Op: "read value", Err: fmt.Errorf("node %s: %w", nid, err)}
		}
		if v != nil {
			d.Value = fmt.Sprint(v.Value())
		}
		d.HasValue = true
	}
	return d, nil
}

func (cl *Client) NamespaceArray(ctx context.Context) ([]string, error) {
	ctx, cancel := cl.callCtx(ctx)
	defer cancel()

	uris, err := cl.c.NamespaceArray(ctx)
	if err != nil {
		return nil, &session.ConnectivityError{Op: "namespace array", Err: err}
	}
	return uris, nil
}

func (cl *Client) NamespaceOrdinal(ctx context.Context, uri string) (uint16, error) {
	ctx, cancel := cl.callCtx(ctx)
	defer cancel()

	ord, err := cl.c.FindNamespace(ctx, uri)
	if err != nil {
		return 0, &session.ConnectivityError{Op: "resolve namespace", Err: fmt.Errorf("%s: %w", uri, err)}
	}
	return ord, nil
}

func (cl *Client) Close(ctx context.Context) error {
	return cl.c.Close(ctx)
}
