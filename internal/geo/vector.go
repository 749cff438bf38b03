package geo

import "math"

// Vector3 is a 3D vector. For airspeed it is expressed in the body frame:
// X forward, Y right, Z down (meters per second).
type Vector3 struct{ X, Y, Z float64 }

// Length returns the Euclidean norm.
func (v Vector3) Length() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }
