package pgconn

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/inad9300/pgeon/internal/auth"
	"github.com/inad9300/pgeon/log"
	"github.com/inad9300/pgeon/pgconn/ctxwatch"
	"github.com/inad9300/pgeon/pgerr"
	"github.com/inad9300/pgeon/pgproto3"
	"github.com/inad9300/pgeon/pgtype"
)

// FieldDescription describes one column of a query's result set.
type FieldDescription = pgproto3.FieldDescription

var connCount uint64

// Conn is one physical, authenticated connection to a PostgreSQL server.
// Per §5, a Conn is owned by at most one lease at a time and its protocol
// phases never overlap: the next phase does not begin until the previous
// phase's terminal ReadyForQuery has been observed (preparation also ends
// on ReadyForQuery, after its RowDescription or NoData).
type Conn struct {
	netConn net.Conn
	fe      *pgproto3.Frontend
	cw      *ctxwatch.ContextWatcher

	cfg *Config

	BackendPID    uint32
	SecretKey     uint32
	RuntimeParams map[string]string

	stmtCache *statementCache

	closed bool
}

type connCtxHandler struct {
	conn net.Conn
}

func (h *connCtxHandler) HandleCancel(ctx context.Context) { h.conn.SetDeadline(time.Now()) }
func (h *connCtxHandler) HandleUnwatchAfterCancel()         { h.conn.SetDeadline(time.Time{}) }

// Connect dials cfg.Host:cfg.Port, optionally upgrades to TLS, and runs the
// startup and authentication exchange of §4.3. On any failure before the
// connection is usable it returns a *pgerr.ConnectError.
func Connect(ctx context.Context, cfg *Config) (*Conn, error) {
	network, address := NetworkAddress(cfg.Host, cfg.Port)

	dialCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	netConn, err := (&net.Dialer{}).DialContext(dialCtx, network, address)
	if err != nil {
		return nil, pgerr.NewConnectError(address, err)
	}

	c := &Conn{
		netConn:       netConn,
		cfg:           cfg,
		RuntimeParams: make(map[string]string),
	}
	c.fe = pgproto3.NewFrontend(netConn, netConn)
	c.cw = ctxwatch.NewContextWatcher(&connCtxHandler{conn: netConn})

	if cfg.TLSConfig != nil {
		if err := c.upgradeTLS(cfg.TLSConfig); err != nil {
			netConn.Close()
			return nil, pgerr.NewConnectError(address, err)
		}
	}

	if err := c.withCtx(ctx, func() error { return c.startup() }); err != nil {
		netConn.Close()
		return nil, pgerr.NewConnectError(address, err)
	}

	n := atomic.AddUint64(&connCount, 1)
	c.stmtCache = newStatementCache(c, 512, fmt.Sprintf("pgeon_%d", n))

	return c, nil
}

// withCtx runs fn with ctx watched for cancellation: if ctx is done before
// fn returns, the underlying socket's deadline is forced into the past so
// any pending read/write unblocks with an error. Once ctx is done, an error
// from fn is reported as a *pgerr.Timeout, except a *pgerr.PostgresError,
// which is returned as is.
func (c *Conn) withCtx(ctx context.Context, fn func() error) error {
	c.cw.Watch(ctx)
	err := fn()
	c.cw.Unwatch()
	if _, isPgErr := err.(*pgerr.PostgresError); isPgErr {
		return err
	}
	if err != nil && ctx.Err() != nil {
		return pgerr.NewTimeout(ctx.Err())
	}
	return err
}

func (c *Conn) upgradeTLS(tlsConfig *tls.Config) error {
	c.fe.Send(&pgproto3.SSLRequest{})
	if err := c.fe.Flush(); err != nil {
		return err
	}

	resp, err := c.fe.ReceiveSSLResponse()
	if err != nil {
		return err
	}
	if resp != 'S' {
		return fmt.Errorf("pgconn: server declined TLS upgrade")
	}

	tlsConn := tls.Client(c.netConn, tlsConfig)
	if err := tlsConn.HandshakeContext(context.Background()); err != nil {
		return err
	}

	c.netConn = tlsConn
	c.fe = pgproto3.NewFrontend(tlsConn, tlsConn)
	c.cw = ctxwatch.NewContextWatcher(&connCtxHandler{conn: tlsConn})
	return nil
}

// phaseStatus is the outcome a phase handler reports for one backend
// message, per the generic driver of §4.3.
type phaseStatus int

const (
	unprocessed phaseStatus = iota
	donePartial
	doneFinal
	phaseFail
)

type phaseResult struct {
	status phaseStatus
	value  interface{}
	err    error
}

// runPhase drives one protocol phase: it receives backend messages and
// dispatches each to handler until the handler reports doneFinal or
// phaseFail, universally intercepting ErrorResponse (fails the phase, after
// reading on to the ReadyForQuery that follows it) and NoticeResponse
// (collected, never fails the phase) before handler ever sees them.
func (c *Conn) runPhase(handler func(pgproto3.BackendMessage) phaseResult) (interface{}, []Notice, error) {
	var notices []Notice

	for {
		msg, err := c.fe.Receive()
		if err != nil {
			return nil, notices, pgerr.NewProtocolError(fmt.Sprintf("receiving message: %v", err))
		}

		switch m := msg.(type) {
		case *pgproto3.ErrorResponse:
			pgErr := pgerr.FromErrorResponse(m)
			for {
				next, err := c.fe.Receive()
				if err != nil {
					break
				}
				if _, ok := next.(*pgproto3.ReadyForQuery); ok {
					break
				}
			}
			return nil, notices, pgErr
		case *pgproto3.NoticeResponse:
			notices = append(notices, Notice(m.PgError))
			continue
		}

		res := handler(msg)
		switch res.status {
		case donePartial:
			continue
		case doneFinal:
			return res.value, notices, nil
		case phaseFail:
			return nil, notices, res.err
		default:
			return nil, notices, pgerr.NewProtocolError(fmt.Sprintf("unexpected message %T", msg))
		}
	}
}

// startup runs the startup and authentication phase of §4.3: send
// StartupMessage, answer whichever authentication challenge the server
// poses, and succeed only once ReadyForQuery arrives with authOk set.
func (c *Conn) startup() error {
	params := map[string]string{
		"user":     c.cfg.User,
		"database": c.cfg.Database,
	}
	for k, v := range c.cfg.RuntimeParams {
		params[k] = v
	}

	c.fe.Send(&pgproto3.StartupMessage{Parameters: params})
	if err := c.fe.Flush(); err != nil {
		return err
	}

	var authOk bool
	var scram *auth.SCRAM

	_, notices, err := c.runPhase(func(msg pgproto3.BackendMessage) phaseResult {
		switch m := msg.(type) {
		case *pgproto3.AuthenticationOk:
			authOk = true
			return phaseResult{status: donePartial}

		case *pgproto3.AuthenticationCleartextPassword:
			c.fe.Send(&pgproto3.PasswordMessage{Password: auth.Cleartext(c.cfg.Password)})
			if err := c.fe.Flush(); err != nil {
				return phaseResult{status: phaseFail, err: err}
			}
			return phaseResult{status: donePartial}

		case *pgproto3.AuthenticationMD5Password:
			c.fe.Send(&pgproto3.PasswordMessage{Password: auth.MD5(c.cfg.User, c.cfg.Password, m.Salt)})
			if err := c.fe.Flush(); err != nil {
				return phaseResult{status: phaseFail, err: err}
			}
			return phaseResult{status: donePartial}

		case *pgproto3.AuthenticationSASL:
			supported := false
			for _, mech := range m.AuthMechanisms {
				if mech == auth.Mechanism {
					supported = true
				}
			}
			if !supported {
				return phaseResult{status: phaseFail, err: pgerr.NewProtocolError("server offered no supported SASL mechanism")}
			}

			s, err := auth.NewSCRAM(c.cfg.User, c.cfg.Password)
			if err != nil {
				return phaseResult{status: phaseFail, err: err}
			}
			scram = s

			c.fe.Send(&pgproto3.SASLInitialResponse{
				AuthMechanism: auth.Mechanism,
				Data:          []byte(scram.ClientFirstMessage()),
			})
			if err := c.fe.Flush(); err != nil {
				return phaseResult{status: phaseFail, err: err}
			}
			return phaseResult{status: donePartial}

		case *pgproto3.AuthenticationSASLContinue:
			if scram == nil {
				return phaseResult{status: phaseFail, err: pgerr.NewProtocolError("SASLContinue without a prior SASL challenge")}
			}
			clientFinal, err := scram.HandleServerFirstMessage(m.Data)
			if err != nil {
				return phaseResult{status: phaseFail, err: err}
			}
			c.fe.Send(&pgproto3.SASLResponse{Data: []byte(clientFinal)})
			if err := c.fe.Flush(); err != nil {
				return phaseResult{status: phaseFail, err: err}
			}
			return phaseResult{status: donePartial}

		case *pgproto3.AuthenticationSASLFinal:
			if scram == nil {
				return phaseResult{status: phaseFail, err: pgerr.NewProtocolError("SASLFinal without a prior SASL challenge")}
			}
			// Per §9, a mismatched server signature is fatal, not merely logged.
			if err := scram.VerifyServerFinalMessage(m.Data); err != nil {
				return phaseResult{status: phaseFail, err: err}
			}
			return phaseResult{status: donePartial}

		case *pgproto3.BackendKeyData:
			c.BackendPID = m.ProcessID
			c.SecretKey = m.SecretKey
			return phaseResult{status: donePartial}

		case *pgproto3.ParameterStatus:
			c.RuntimeParams[m.Name] = m.Value
			return phaseResult{status: donePartial}

		case *pgproto3.NegotiateProtocolVersion:
			return phaseResult{status: phaseFail, err: pgerr.NewProtocolError(fmt.Sprintf(
				"server cannot speak protocol 3.0 in full; it offered minor version %d", m.MinorProtocolVersion))}

		case *pgproto3.ReadyForQuery:
			if !authOk {
				return phaseResult{status: phaseFail, err: pgerr.NewProtocolError("ReadyForQuery observed before authentication completed")}
			}
			return phaseResult{status: doneFinal}

		default:
			return phaseResult{status: unprocessed}
		}
	})

	c.logNotices(notices)
	return err
}

// Exec runs sql through the simple query protocol. This engine uses it for
// transaction control (begin, commit, rollback, savepoint, release), for
// deallocating evicted cached statements, and for whatever SQL Tx.Exec is
// given.
func (c *Conn) Exec(ctx context.Context, sql string) (tag CommandTag, notices []Notice, err error) {
	err = c.withCtx(ctx, func() error {
		c.fe.Send(&pgproto3.Query{String: sql})
		if err := c.fe.Flush(); err != nil {
			return err
		}

		var completed bool

		_, ns, err := c.runPhase(func(msg pgproto3.BackendMessage) phaseResult {
			switch m := msg.(type) {
			case *pgproto3.CommandComplete:
				tag = CommandTag(m.CommandTag)
				completed = true
				return phaseResult{status: donePartial}
			case *pgproto3.ReadyForQuery:
				if !completed {
					return phaseResult{status: phaseFail, err: pgerr.NewProtocolError("ReadyForQuery observed before CommandComplete")}
				}
				return phaseResult{status: doneFinal}
			default:
				return phaseResult{status: unprocessed}
			}
		})
		notices = ns
		return err
	})

	c.logNotices(notices)
	return tag, notices, err
}

// prepare runs the extended preparation phase of §4.3: Parse + Describe +
// Sync, collecting ParseComplete, ParameterDescription, and either
// RowDescription or NoData.
func (c *Conn) prepare(ctx context.Context, name, sql string) (stmt *StatementDescription, err error) {
	err = c.withCtx(ctx, func() error {
		c.fe.Send(&pgproto3.Parse{Name: name, Query: sql})
		c.fe.Send(&pgproto3.Describe{ObjectType: pgproto3.DescribeStatement, Name: name})
		c.fe.Send(&pgproto3.Sync{})
		if err := c.fe.Flush(); err != nil {
			return err
		}

		var parsed bool
		var paramOIDs []uint32
		var fields []FieldDescription
		var hasResultSet bool
		var sawShape bool

		_, notices, err := c.runPhase(func(msg pgproto3.BackendMessage) phaseResult {
			switch m := msg.(type) {
			case *pgproto3.ParseComplete:
				parsed = true
				return phaseResult{status: donePartial}
			case *pgproto3.ParameterDescription:
				paramOIDs = m.ParameterOIDs
				return phaseResult{status: donePartial}
			case *pgproto3.RowDescription:
				fields = m.Fields
				hasResultSet = true
				sawShape = true
				return phaseResult{status: donePartial}
			case *pgproto3.NoData:
				hasResultSet = false
				sawShape = true
				return phaseResult{status: donePartial}
			case *pgproto3.ReadyForQuery:
				if !parsed || !sawShape {
					return phaseResult{status: phaseFail, err: pgerr.NewProtocolError("preparation completed without ParseComplete/RowDescription/NoData")}
				}
				return phaseResult{status: doneFinal}
			default:
				return phaseResult{status: unprocessed}
			}
		})

		c.logNotices(notices)
		if err != nil {
			return err
		}

		stmt = &StatementDescription{
			Name:         name,
			SQL:          sql,
			ParamOIDs:    paramOIDs,
			Fields:       fields,
			HasResultSet: hasResultSet,
		}
		return nil
	})

	return stmt, err
}

// Prepare returns the cached StatementDescription for sql, preparing it on
// the server if this is the first time this connection has seen it.
func (c *Conn) Prepare(ctx context.Context, sql string) (*StatementDescription, error) {
	return c.stmtCache.Get(ctx, sql)
}

// QueryResult is the outcome of an extended-query execution: the decoded
// rows, the command tag, and any notices observed along the way.
type QueryResult struct {
	Fields     []FieldDescription
	Rows       [][]interface{}
	CommandTag CommandTag
	Notices    []Notice
}

// Execute runs query through the extended query protocol of §4.3: Bind +
// Execute + Sync against stmt, binding params positionally in declared-OID
// order. params[i] must already be wire-encoded (see EncodeParam); a nil
// entry binds SQL NULL.
func (c *Conn) Execute(ctx context.Context, stmt *StatementDescription, params [][]byte) (result *QueryResult, err error) {
	err = c.withCtx(ctx, func() error {
		formatCodes := make([]int16, len(params))
		for i := range formatCodes {
			formatCodes[i] = int16(pgproto3.BinaryFormat)
		}

		c.fe.Send(&pgproto3.Bind{
			PreparedStatement:    stmt.Name,
			ParameterFormatCodes: formatCodes,
			Parameters:           params,
			ResultFormatCodes:    []int16{int16(pgproto3.BinaryFormat)},
		})
		c.fe.Send(&pgproto3.Execute{MaxRows: 0})
		c.fe.Send(&pgproto3.Sync{})
		if err := c.fe.Flush(); err != nil {
			return err
		}

		var bound, commandCompleted bool
		var tag CommandTag
		var rows [][]interface{}

		_, notices, err := c.runPhase(func(msg pgproto3.BackendMessage) phaseResult {
			switch m := msg.(type) {
			case *pgproto3.BindComplete:
				bound = true
				return phaseResult{status: donePartial}
			case *pgproto3.DataRow:
				row := make([]interface{}, len(m.Values))
				for i, raw := range m.Values {
					var oid uint32
					if i < len(stmt.Fields) {
						oid = stmt.Fields[i].DataTypeOID
					}
					row[i] = DecodeColumn(pgtype.OID(oid), raw, c.cfg.Logger)
				}
				rows = append(rows, row)
				return phaseResult{status: donePartial}
			case *pgproto3.CommandComplete:
				tag = CommandTag(m.CommandTag)
				commandCompleted = true
				return phaseResult{status: donePartial}
			case *pgproto3.ReadyForQuery:
				if !bound || !commandCompleted {
					return phaseResult{status: phaseFail, err: pgerr.NewProtocolError("ReadyForQuery observed before Bind/CommandComplete completed")}
				}
				return phaseResult{status: doneFinal}
			default:
				return phaseResult{status: unprocessed}
			}
		})

		c.logNotices(notices)
		if err != nil {
			return err
		}

		result = &QueryResult{
			Fields:     stmt.Fields,
			Rows:       rows,
			CommandTag: tag,
			Notices:    notices,
		}
		return nil
	})

	return result, err
}

// CancelRequest opens a fresh connection to the same host/port as c and
// writes the pre-built CancelRequest frame, per §4.3's cancellation
// mechanism. It is advisory: the in-flight statement either still
// completes or fails with SQLSTATE 57014.
func (c *Conn) CancelRequest(ctx context.Context) error {
	network, address := NetworkAddress(c.cfg.Host, c.cfg.Port)

	dialCtx := ctx
	if c.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.ConnectTimeout)
		defer cancel()
	}

	cancelConn, err := (&net.Dialer{}).DialContext(dialCtx, network, address)
	if err != nil {
		return pgerr.NewConnectError(address, err)
	}
	defer cancelConn.Close()

	frame := (&pgproto3.CancelRequest{ProcessID: c.BackendPID, SecretKey: c.SecretKey}).Encode(nil)
	_, err = cancelConn.Write(frame)
	return err
}

// Close politely terminates the connection.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	c.fe.Send(&pgproto3.Terminate{})
	_ = c.fe.Flush()
	return c.netConn.Close()
}

func (c *Conn) logNotices(notices []Notice) {
	if c.cfg.Logger == nil || c.cfg.LogLevel < log.LogLevelNotice {
		return
	}
	for _, n := range notices {
		c.cfg.Logger.Log(context.Background(), log.LogLevelNotice, n.Message, map[string]interface{}{
			"severity": n.Severity,
			"code":     n.Code,
		})
	}
}
