package knowledge

// DefaultContent returns the built-in tables.
func DefaultContent() Content {
	return Content{
		Greetings: []string{
			"hi",
			"hello",
			"hey",
			"good morning",
			"good afternoon",
			"good evening",
			"greetings",
		},
		GreetingAnswer: "Hello! Ask me anything about the API, or type \"how to get started?\" for a step-by-step guide.",
		Menu: Menu{
			Trigger: "how to get started?",
			Steps: []MenuStep{
				{
					Title:  "Create an account",
					Detail: "Sign up on the developer portal with your work email and confirm the address from the verification mail. Your account gives you access to the dashboard, the API reference and your usage statistics.",
				},
				{
					Title:  "Choose a plan",
					Detail: "Every account starts on the free plan. Compare the plans on the pricing page and upgrade from the dashboard when you need higher rate limits or production support.",
				},
				{
					Title:  "Register an application",
					Detail: "In the dashboard open Applications and create a new application. Each application has its own credentials, callback URLs and usage quota.",
				},
				{
					Title:  "Get your API credentials",
					Detail: "Open your application and copy the client ID and secret, or generate an API key. Keep secrets out of source control and rotate them from the dashboard if they leak.",
				},
				{
					Title:  "Make your first request",
					Detail: "Send a request to the base URL of the API with your credentials in the Authorization header. Ask \"what is the base url of the api?\" to see the configured servers.",
				},
				{
					Title:  "Handle errors and limits",
					Detail: "Errors come back with a non-2xx status and a JSON body describing the problem. When you exceed your rate limit the API answers 429; wait for the time given in the Retry-After header before retrying.",
				},
				{
					Title:  "Go live",
					Detail: "Switch your application from the sandbox to the production environment, update the base URL and credentials in your deployment, and monitor usage from the dashboard.",
				},
			},
		},
		FAQ: []FAQEntry{
			{
				Question: "what are plans?",
				Answer:   "Plans define what your account can do: the request quota, the rate limits and the support level. Every account starts on the free plan and can move to a paid plan at any time from the dashboard; changes apply immediately.",
			},
			{
				Question: "what is an api key?",
				Answer:   "An API key is a secret token that identifies your application. Send it with every request, usually in the Authorization header, and never share it publicly.",
			},
			{
				Question: "what is the base url of the api?",
				Dynamic:  DynamicBaseURL,
			},
		},
	}
}

// Default returns the compiled built-in tables.
func Default() *Tables {
	t, err := Compile(DefaultContent())
	if err != nil {
		panic("knowledge: invalid default content: " + err.Error())
	}
	return t
}
