package virustotal

import (
	"filescanner/pkg/avscan"
	"filescanner/pkg/domain"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// object iterates over the keys of an object, treating null as empty.
func object(d *jx.Decoder, f func(d *jx.Decoder, key string) error) error {
	if d.Next() == jx.Null {
		return d.Null()
	}

	return d.Obj(f)
}

// optString reads a string that may be null.
func optString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}

	return d.Str()
}

// data descends into the top-level "data" member.
func data(b []byte, f func(d *jx.Decoder) error) error {
	found := false
	err := jx.DecodeBytes(b).Obj(func(d *jx.Decoder, key string) error {
		if key != "data" {
			return d.Skip()
		}
		found = true

		return f(d)
	})
	if err != nil {
		return err //nolint: wrapcheck
	}
	if !found {
		return errors.New("missing data member")
	}

	return nil
}

func decodeUpload(b []byte) (string, error) {
	var id string
	err := data(b, func(d *jx.Decoder) error {
		return object(d, func(d *jx.Decoder, key string) error {
			if key != "id" {
				return d.Skip()
			}
			v, err := optString(d)
			id = v

			return err
		})
	})
	if err != nil {
		return "", errors.Wrap(err, "decode upload")
	}
	if id == "" {
		return "", errors.New("upload response has no data.id")
	}

	return id, nil
}

func decodeUploadURL(b []byte) (string, error) {
	var u string
	err := data(b, func(d *jx.Decoder) error {
		v, err := optString(d)
		u = v

		return err
	})
	if err != nil {
		return "", errors.Wrap(err, "decode upload url")
	}
	if u == "" {
		return "", errors.New("upload url response is empty")
	}

	return u, nil
}

func decodeAnalysis(b []byte) (*avscan.Analysis, error) {
	a := &avscan.Analysis{Engines: map[string]domain.EngineVerdict{}}
	hasTotal := false
	sum := 0

	err := data(b, func(d *jx.Decoder) error {
		return object(d, func(d *jx.Decoder, key string) error {
			if key != "attributes" {
				return d.Skip()
			}

			return object(d, func(d *jx.Decoder, key string) error {
				switch key {
				case "status":
					s, err := optString(d)
					a.Status = avscan.AnalysisStatus(s)

					return err
				case "stats":
					return object(d, func(d *jx.Decoder, key string) error {
						n, err := d.Int()
						if err != nil {
							return errors.Wrapf(err, "stats.%s", key)
						}
						switch key {
						case "malicious":
							a.Stats.Malicious = n
						case "suspicious":
							a.Stats.Suspicious = n
						case "undetected":
							a.Stats.Undetected = n
						case "harmless":
							a.Stats.Harmless = n
						case "total":
							a.Stats.Total = n
							hasTotal = true

							return nil
						}
						sum += n

						return nil
					})
				case "results":
					return object(d, func(d *jx.Decoder, name string) error {
						v, err := decodeEngine(d, name)
						if err != nil {
							return errors.Wrapf(err, "results.%s", name)
						}
						a.Engines[name] = v

						return nil
					})
				default:
					return d.Skip()
				}
			})
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode analysis")
	}

	switch a.Status {
	case avscan.AnalysisQueued, avscan.AnalysisInProgress, avscan.AnalysisCompleted:
	case "":
		return nil, errors.New("analysis has no status")
	default:
		return nil, errors.Errorf("unknown analysis status %q", a.Status)
	}
	if !hasTotal {
		a.Stats.Total = sum
	}

	return a, nil
}

func decodeEngine(d *jx.Decoder, name string) (domain.EngineVerdict, error) {
	v := domain.EngineVerdict{EngineName: name}
	err := object(d, func(d *jx.Decoder, key string) error {
		var (
			s   string
			err error
		)
		switch key {
		case "engine_name", "category", "result", "engine_version", "engine_update":
			s, err = optString(d)
		default:
			return d.Skip()
		}
		switch key {
		case "engine_name":
			if s != "" {
				v.EngineName = s
			}
		case "category":
			v.Category = s
		case "result":
			v.Result = s
		case "engine_version":
			v.EngineVersion = s
		case "engine_update":
			v.EngineUpdate = s
		}

		return err
	})
	v.Detected = v.Category == "malicious"

	return v, err //nolint: wrapcheck
}

// remoteMessage extracts error.message from an error body, falling back to
// the raw body.
func remoteMessage(b []byte) string {
	var msg string
	_ = jx.DecodeBytes(b).Obj(func(d *jx.Decoder, key string) error {
		if key != "error" {
			return d.Skip()
		}

		return object(d, func(d *jx.Decoder, key string) error {
			if key != "message" {
				return d.Skip()
			}
			v, err := optString(d)
			msg = v

			return err
		})
	})
	if msg == "" {
		msg = strings.TrimSpace(string(b))
		if len(msg) > 200 {
			msg = msg[:200]
		}
	}

	return msg
}
