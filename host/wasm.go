package host

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/reglet-dev/wasm-bootstrap/domain/entities"
	"github.com/reglet-dev/wasm-bootstrap/log"
	"github.com/tetratelabs/wazero/api"
)

func (e *Executor) registerHostFunctions(ctx context.Context) error {
	builder := e.runtime.NewHostModuleBuilder(e.hostModule)

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, packed uint64) {
			payload, ok := readPacked(m, packed)
			if !ok {
				e.logger.WarnContext(ctx, "guest log out of bounds", "packed", packed)
				return
			}

			record, err := log.DecodeRecord(payload, time.Now())
			if err != nil {
				e.logger.InfoContext(ctx, "guest log (raw)", "payload", string(payload))
				return
			}

			handler := e.logger.Handler()
			if !handler.Enabled(ctx, record.Level) {
				return
			}
			record.AddAttrs(slog.String("source", "guest"))
			_ = handler.Handle(ctx, record)
		}).
		Export("log_message")

	_, err := builder.Instantiate(ctx)
	return err
}

// checkEntrySignature accepts (i32, i32) -> () and (i32, i32) -> i64.
func checkEntrySignature(name string, def api.FunctionDefinition) error {
	params := def.ParamTypes()
	results := def.ResultTypes()
	if len(params) != 2 || params[0] != api.ValueTypeI32 || params[1] != api.ValueTypeI32 {
		return fmt.Errorf("export %q must take (i32, i32), got %s", name, typeList(params))
	}
	if len(results) > 1 || (len(results) == 1 && results[0] != api.ValueTypeI64) {
		return fmt.Errorf("export %q must return nothing or i64, got %s", name, typeList(results))
	}
	return nil
}

func typeList(types []api.ValueType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = api.ValueTypeName(t)
	}
	return fmt.Sprintf("%v", names)
}

func (p *ModuleInstance) callRaw(ctx context.Context, name string, input []byte) (uint64, error) {
	f := p.module.ExportedFunction(name)
	if f == nil {
		return 0, fmt.Errorf("export %q not found", name)
	}

	var ptr uint32
	if len(input) > 0 {
		allocate := p.module.ExportedFunction("allocate")
		if allocate == nil {
			return 0, fmt.Errorf("guest does not export 'allocate'")
		}
		resAlloc, err := allocate.Call(ctx, uint64(len(input)))
		if err != nil {
			return 0, fmt.Errorf("failed to allocate in guest: %w", err)
		}
		if len(resAlloc) == 0 {
			return 0, fmt.Errorf("allocate returned no results")
		}
		ptr = uint32(resAlloc[0])
		mem := p.module.Memory()
		if mem == nil || !mem.Write(ptr, input) {
			return 0, fmt.Errorf("failed to write input to guest memory")
		}
	}

	results, err := f.Call(ctx, uint64(ptr), uint64(len(input)))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0], nil
}

// decodeErrorDetail reads the failure document a guest returned. Payloads that
// are not an ErrorDetail with a message are kept as plain text.
func (p *ModuleInstance) decodeErrorDetail(packed uint64) (*entities.ErrorDetail, error) {
	data, ok := readPacked(p.module, packed)
	if !ok {
		return nil, fmt.Errorf("failed to read error detail from guest memory")
	}

	var detail entities.ErrorDetail
	if err := json.Unmarshal(data, &detail); err == nil && detail.Message != "" {
		return &detail, nil
	}
	return &entities.ErrorDetail{Message: string(data)}, nil
}

// readPacked copies the (ptr << 32) | len region out of guest memory.
func readPacked(m api.Module, packed uint64) ([]byte, bool) {
	ptr := uint32(packed >> 32)
	length := uint32(packed)
	if length == 0 {
		return nil, false
	}
	mem := m.Memory()
	if mem == nil {
		return nil, false
	}
	data, ok := mem.Read(ptr, length)
	if !ok {
		return nil, false
	}
	out := make([]byte, length)
	copy(out, data)
	return out, true
}
