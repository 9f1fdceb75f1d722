package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/jsonrequest/internal/jsonrequest"
)

type valueOutput struct {
	Body struct {
		Value any `json:"value" doc:"Decoded JSON response body"`
	}
}

func registerFetchHandlers(api huma.API, svc Service) {
	type getInput struct {
		Body struct {
			URL     string `json:"url" doc:"URL relative to the configured origin"`
			Timeout *int   `json:"timeout,omitempty" doc:"Dial and read timeout in milliseconds (default 10000)"`
		}
	}
	huma.Register(api, huma.Operation{
		OperationID: "fetch-get",
		Method:      http.MethodPost,
		Path:        "/api/v1/get",
		Summary:     "GET a JSON value from the origin",
		Tags:        []string{"Fetch"},
	}, func(ctx context.Context, input *getInput) (*valueOutput, error) {
		value, err := svc.Get(ctx, jsonrequest.GetArgs{URL: input.Body.URL, Timeout: input.Body.Timeout})
		noteFetch(ctx, input.Body.URL, err)
		if err != nil {
			return nil, mapErr(err)
		}
		out := &valueOutput{}
		out.Body.Value = value
		return out, nil
	})

	type postInput struct {
		Body struct {
			URL     string `json:"url" doc:"URL relative to the configured origin"`
			Send    any    `json:"send" doc:"Value sent as the JSON request body"`
			Timeout *int   `json:"timeout,omitempty" doc:"Dial and read timeout in milliseconds (default 10000)"`
		}
	}
	huma.Register(api, huma.Operation{
		OperationID: "fetch-post",
		Method:      http.MethodPost,
		Path:        "/api/v1/post",
		Summary:     "POST a JSON value to the origin and return the JSON reply",
		Tags:        []string{"Fetch"},
	}, func(ctx context.Context, input *postInput) (*valueOutput, error) {
		value, err := svc.Post(ctx, jsonrequest.PostArgs{URL: input.Body.URL, Send: input.Body.Send, Timeout: input.Body.Timeout})
		noteFetch(ctx, input.Body.URL, err)
		if err != nil {
			return nil, mapErr(err)
		}
		out := &valueOutput{}
		out.Body.Value = value
		return out, nil
	})
}
