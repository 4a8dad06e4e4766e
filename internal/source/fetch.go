package source

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// openPath opens a source file for reading. Local paths open directly;
// ftp:// URLs are retrieved from the remote server. The caller closes
// the returned reader.
func openPath(ctx context.Context, path string) (io.ReadCloser, error) {
	if strings.HasPrefix(path, "ftp://") {
		return openFTP(ctx, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open %s", path)
	}
	return f, nil
}

func openFTP(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "source: parse ftp url")
	}
	host := u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}
	if u.Path == "" {
		return nil, eris.New("source: empty path in ftp url")
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("path", u.Path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(30*time.Second), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "source: ftp dial")
	}

	user, pass := "anonymous", "anonymous@"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		_ = conn.Quit()
		return nil, eris.Wrap(err, "source: ftp login")
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		_ = conn.Quit()
		return nil, eris.Wrap(err, "source: ftp retrieve")
	}
	return &ftpConnReader{resp: resp, conn: conn}, nil
}

// ftpConnReader ties the FTP response and connection together so one
// Close releases both.
type ftpConnReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpConnReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpConnReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return eris.Wrap(respErr, "source: close ftp response")
	}
	if quitErr != nil {
		return eris.Wrap(quitErr, "source: quit ftp connection")
	}
	return nil
}

// reachable reports whether a path or ftp URL can be opened right now.
func reachable(ctx context.Context, path string) bool {
	rc, err := openPath(ctx, path)
	if err != nil {
		return false
	}
	_ = rc.Close()
	return true
}
