package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/Runscount/RunScout/internal/pkg/fragment"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	waypointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Waypoint",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"position": &graphql.Field{Type: graphql.Int},
			"location": &graphql.Field{Type: coordinateType},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	snapshotType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteSnapshot",
		Fields: graphql.Fields{
			"session_id":      &graphql.Field{Type: graphql.String},
			"waypoints":       &graphql.Field{Type: graphql.NewList(waypointType)},
			"distance_meters": &graphql.Field{Type: graphql.Float},
			"polyline":        &graphql.Field{Type: graphql.String},
			"bounds":          &graphql.Field{Type: boundsType},
			"fragment":        &graphql.Field{Type: graphql.String},
			"snap_to_trail":   &graphql.Field{Type: graphql.Boolean},
		},
	})

	candidateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeocodeCandidate",
		Fields: graphql.Fields{
			"location": &graphql.Field{Type: coordinateType},
			"label":    &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"session": &graphql.Field{
				Type:        snapshotType,
				Description: "Current route snapshot for a session",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Sessions.Snapshot(p.Context, id)
				},
			},
			"decodeFragment": &graphql.Field{
				Type:        graphql.NewList(coordinateType),
				Description: "Decode a URL fragment into coordinates without a session",
				Args: graphql.FieldConfigArgument{
					"fragment": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					frag := p.Args["fragment"].(string)
					return fragment.Decode(frag), nil
				},
			},
			"geocode": &graphql.Field{
				Type:        graphql.NewList(candidateType),
				Description: "Search place names for a session",
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"query":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 5},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					session := p.Args["session"].(string)
					query := p.Args["query"].(string)
					limit := p.Args["limit"].(int)
					return deps.Geocode.Search(p.Context, session, query, limit)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
