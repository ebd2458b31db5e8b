package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/dunning/backend/pkg/common"
	"github.com/OFFIS-RIT/dunning/backend/pkg/logger"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// readDataset fetches and decodes the document at path. Records that cannot
// be decoded individually are reported as messages, not as an error.
func (l *Loader) readDataset(ctx context.Context, path string) (common.Dataset, []string, error) {
	raw, err := l.readerFor(path).ReadSource(ctx, path)
	if err != nil {
		return common.Dataset{}, nil, fmt.Errorf("%w: read %s: %v", ErrMalformedSource, path, err)
	}

	ds, errs, err := decodeDataset(raw)
	if err != nil && l.repair {
		repaired, rerr := jsonrepair.JSONRepair(string(raw))
		if rerr == nil {
			logger.Warn("[Loader] Source repaired before parsing", "path", path, "err", err)
			ds, errs, err = decodeDataset([]byte(repaired))
		}
	}
	if err != nil {
		return common.Dataset{}, nil, fmt.Errorf("%w: %s: %v", ErrMalformedSource, path, err)
	}
	return ds, errs, nil
}

// decodeDataset checks the document shape and decodes each record on its own
// so that one mistyped record does not reject the whole file.
func decodeDataset(raw []byte) (common.Dataset, []string, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return common.Dataset{}, nil, fmt.Errorf("parse document: %w", err)
	}

	clients, err := arrayField(doc, "clients")
	if err != nil {
		return common.Dataset{}, nil, err
	}
	interactions, err := arrayField(doc, "interactions")
	if err != nil {
		return common.Dataset{}, nil, err
	}

	var ds common.Dataset
	if meta, ok := doc["metadata"]; ok {
		// Metadata is informational only.
		_ = json.Unmarshal(meta, &ds.Metadata)
	}

	var errs []string
	ds.Clients = make([]common.ClientRecord, 0, len(clients))
	for i, item := range clients {
		var rec common.ClientRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			errs = append(errs, fmt.Sprintf("client %s: %v", recordRef(item, i), err))
			continue
		}
		ds.Clients = append(ds.Clients, rec)
	}

	ds.Interactions = make([]common.InteractionRecord, 0, len(interactions))
	for i, item := range interactions {
		var rec common.InteractionRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			errs = append(errs, fmt.Sprintf("interaction %s: %v", recordRef(item, i), err))
			continue
		}
		ds.Interactions = append(ds.Interactions, rec)
	}

	return ds, errs, nil
}

func arrayField(doc map[string]json.RawMessage, key string) ([]json.RawMessage, error) {
	v, ok := doc[key]
	if !ok {
		return nil, fmt.Errorf("missing %q array", key)
	}
	if t := bytes.TrimSpace(v); len(t) == 0 || t[0] != '[' {
		return nil, fmt.Errorf("%q is not an array", key)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil, fmt.Errorf("decode %q: %w", key, err)
	}
	return items, nil
}

// recordRef names a record by its id when one can be recovered, otherwise
// by its position.
func recordRef(item json.RawMessage, index int) string {
	var probe struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(item, &probe); err == nil && probe.ID != nil {
		return fmt.Sprint(probe.ID)
	}
	return fmt.Sprintf("#%d", index)
}

// Schema describes the dataset document accepted by Load.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	return reflector.Reflect(&common.Dataset{})
}
