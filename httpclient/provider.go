package httpclient

import (
	"github.com/kbukum/licensing/provider"
)

// compile-time assertions
var _ provider.RequestResponse[Request, *Response] = (*Adapter)(nil)
