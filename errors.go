package machina

import "errors"

// ErrRedirectLoop is returned by Set when entry resolution follows more
// redirects than allowed by WithMaxRedirects. The machine's current state is
// unchanged when this is returned.
var ErrRedirectLoop = errors.New("redirect limit exceeded")
