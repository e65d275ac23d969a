package sui

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// stringUint is a u64 the Sui API encodes as a decimal string.
type stringUint uint64

func (s stringUint) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(s), 10))
}

func (s *stringUint) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var n uint64
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.Wrap(err, "invalid u64")
		}
		*s = stringUint(n)
		return nil
	}

	if str == "" {
		*s = 0
		return nil
	}

	n, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid u64 %q", str)
	}
	*s = stringUint(n)

	return nil
}
