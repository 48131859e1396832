// Package graph exposes the inventory CRUD surface over GraphQL. It talks
// to the inventory store and transport client directly and is not gated by
// the session layer.
package graph

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"github.com/Gibrhan/Autoconf/internal/inventory"
	"github.com/Gibrhan/Autoconf/internal/server"
	"github.com/Gibrhan/Autoconf/internal/transport"
)

// Module serves the GraphQL endpoint.
type Module struct {
	inventory *inventory.FileStore
	transport transport.Opener
	logger    *zap.Logger
	schema    graphql.Schema
}

// NewModule builds the schema over the given inventory store and transport.
func NewModule(inv *inventory.FileStore, tc transport.Opener, logger *zap.Logger) (*Module, error) {
	m := &Module{inventory: inv, transport: tc, logger: logger}
	schema, err := m.buildSchema()
	if err != nil {
		return nil, fmt.Errorf("build graphql schema: %w", err)
	}
	m.schema = schema
	return m, nil
}

// Routes lists the GraphQL endpoint.
func (m *Module) Routes() []server.Route {
	return []server.Route{
		{Method: "POST", Path: "/graphql", Handler: m.handleGraphQL},
	}
}

type graphqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

func (m *Module) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         m.schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        r.Context(),
	})
	server.WriteJSON(w, http.StatusOK, result)
}

func (m *Module) buildSchema() (graphql.Schema, error) {
	deviceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Device",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.Int},
			"name":       &graphql.Field{Type: graphql.String},
			"host":       &graphql.Field{Type: graphql.String},
			"username":   &graphql.Field{Type: graphql.String},
			"password":   &graphql.Field{Type: graphql.String},
			"secret":     &graphql.Field{Type: graphql.String},
			"deviceType": &graphql.Field{Type: graphql.String, Resolve: resolveDeviceType},
		},
	})

	deviceInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "DeviceInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"host":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"username":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"secret":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"deviceType": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"devices": &graphql.Field{
				Type:    graphql.NewList(deviceType),
				Resolve: m.resolveDevices,
			},
			"deviceById": &graphql.Field{
				Type: deviceType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: m.resolveDeviceByID,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createDevice": &graphql.Field{
				Type: deviceType,
				Args: graphql.FieldConfigArgument{
					"deviceData": &graphql.ArgumentConfig{Type: graphql.NewNonNull(deviceInput)},
				},
				Resolve: m.resolveCreateDevice,
			},
			"updateDevice": &graphql.Field{
				Type: deviceType,
				Args: graphql.FieldConfigArgument{
					"id":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"deviceData": &graphql.ArgumentConfig{Type: graphql.NewNonNull(deviceInput)},
				},
				Resolve: m.resolveUpdateDevice,
			},
			"deleteDevice": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: m.resolveDeleteDevice,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}

// resolveDeviceType maps the snake_case struct field onto the camelCase
// GraphQL field.
func resolveDeviceType(p graphql.ResolveParams) (any, error) {
	dev, ok := p.Source.(inventory.Device)
	if !ok {
		return nil, nil
	}
	return dev.DeviceType, nil
}

func (m *Module) resolveDevices(graphql.ResolveParams) (any, error) {
	return m.inventory.Load(), nil
}

func (m *Module) resolveDeviceByID(p graphql.ResolveParams) (any, error) {
	id, _ := p.Args["id"].(int)
	dev, err := m.inventory.FindByID(id)
	if err != nil {
		return nil, nil // absent device resolves to null, not an error
	}
	return *dev, nil
}

// deviceFromInput builds a Device from the deviceData argument.
func deviceFromInput(args map[string]any) inventory.Device {
	data, _ := args["deviceData"].(map[string]any)
	str := func(key string) string {
		s, _ := data[key].(string)
		return s
	}
	return inventory.Device{
		Name:       str("name"),
		Host:       str("host"),
		Username:   str("username"),
		Password:   str("password"),
		Secret:     str("secret"),
		DeviceType: str("deviceType"),
	}
}

func (m *Module) resolveCreateDevice(p graphql.ResolveParams) (any, error) {
	devices := m.inventory.Load()

	dev := deviceFromInput(p.Args)
	dev.ID = inventory.NextID(devices)
	devices = append(devices, dev)

	if err := m.inventory.Save(devices); err != nil {
		return nil, err
	}

	// The hostname push is a side effect of inventory editing; its failure
	// does not roll back the save, which already happened.
	m.configureHostname(dev)
	return dev, nil
}

func (m *Module) resolveUpdateDevice(p graphql.ResolveParams) (any, error) {
	id, _ := p.Args["id"].(int)
	devices := m.inventory.Load()

	for i := range devices {
		if devices[i].ID != id {
			continue
		}
		dev := deviceFromInput(p.Args)
		dev.ID = id
		devices[i] = dev

		if err := m.inventory.Save(devices); err != nil {
			return nil, err
		}
		m.configureHostname(dev)
		return dev, nil
	}
	return nil, nil
}

func (m *Module) resolveDeleteDevice(p graphql.ResolveParams) (any, error) {
	id, _ := p.Args["id"].(int)
	devices := m.inventory.Load()

	kept := make([]inventory.Device, 0, len(devices))
	for _, d := range devices {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	if err := m.inventory.Save(kept); err != nil {
		return nil, err
	}
	return true, nil
}

// configureHostname pushes "hostname <name>" to the device after a create
// or update. Errors are logged only.
func (m *Module) configureHostname(dev inventory.Device) {
	sess, err := m.transport.Open(dev)
	if err != nil {
		m.logger.Warn("hostname push failed to connect",
			zap.String("device", dev.Name),
			zap.Error(err),
		)
		return
	}
	defer sess.Close()

	if _, err := sess.RunConfigSet([]string{"hostname " + dev.Name}); err != nil {
		m.logger.Warn("hostname push failed",
			zap.String("device", dev.Name),
			zap.Error(err),
		)
		return
	}
	if _, err := sess.Persist(); err != nil {
		m.logger.Warn("hostname push save failed",
			zap.String("device", dev.Name),
			zap.Error(err),
		)
	}
}
