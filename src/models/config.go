package models

// MConfig Structure
type MConfig struct {
	Name           string         `yaml:"name"`
	Host           string         `yaml:"host"`
	Port           int            `yaml:"port"`
	LogLevel       string         `yaml:"log_level"`
	SessionSecret  string         `yaml:"session_secret"`
	EASharedSecret string         `yaml:"ea_shared_secret"`
	AdminUser      string         `yaml:"admin_user"`
	Storage        MStorageConfig `yaml:"storage"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}
