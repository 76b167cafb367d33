package ctdf

type StopConfig struct {
	StopID    string `yaml:"stop_id" validate:"required"`
	Direction string `yaml:"direction"`
}
