package domain

type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Timezone struct {
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
}
