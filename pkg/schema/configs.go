package schema

// Default locations of the field definition files, relative to the working directory.
const (
	DefaultCoreFieldsPath  = "confs/core_fields.yml"
	DefaultExtraFieldsPath = "confs/extra_fields.yml"
	DefaultTagFieldsPath   = "confs/tag_fields.yml"
)

// Config points the registry at its three field definition files.
//
// Core and extra files are YAML mappings of field name to type name:
//
//	cell_index: integer
//	rsrp: float
//	timestamp: datetime
//
// The tag file is either a sequence of names or a mapping whose keys are names.
type Config struct {
	CoreFieldsPath  string `yaml:"core_fields_path" envconfig:"SCHEMA_CORE_FIELDS_PATH"`
	ExtraFieldsPath string `yaml:"extra_fields_path" envconfig:"SCHEMA_EXTRA_FIELDS_PATH"`
	TagFieldsPath   string `yaml:"tag_fields_path" envconfig:"SCHEMA_TAG_FIELDS_PATH"`
}

func (c Config) withDefaults() Config {
	if c.CoreFieldsPath == "" {
		c.CoreFieldsPath = DefaultCoreFieldsPath
	}
	if c.ExtraFieldsPath == "" {
		c.ExtraFieldsPath = DefaultExtraFieldsPath
	}
	if c.TagFieldsPath == "" {
		c.TagFieldsPath = DefaultTagFieldsPath
	}
	return c
}
